package response

// AppError 处理器层错误：业务码、文案键与本地化后的提示
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Key
	}
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// LogFields 日志键值对
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{"code", e.Code}
	if e.Key != "" {
		fields = append(fields, "message_key", e.Key)
	}
	if e.Err != nil {
		fields = append(fields, "error", e.Err)
	}
	return fields
}

// ServerSide 是否为服务端故障（5xx 业务码）
func (e *AppError) ServerSide() bool {
	return e.Code >= CodeInternal
}

// WrapError 包装错误
func WrapError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
