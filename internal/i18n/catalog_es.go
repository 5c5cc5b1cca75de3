package i18n

var messagesES = map[string]string{
	"error.bad_request":              "Solicitud inválida",
	"error.unauthorized":             "No autenticado",
	"error.forbidden":                "Sin permiso",
	"error.not_found":                "Recurso no encontrado",
	"error.conflict":                 "Conflicto con el estado actual",
	"error.upstream":                 "Servicio externo no disponible",
	"error.internal":                 "Error interno, inténtelo de nuevo",
	"error.too_many_requests":        "Demasiados intentos, espere un momento",
	"error.funnel_name_required":     "Indique su nombre",
	"error.funnel_email_invalid":     "Indique un correo válido",
	"error.funnel_profile_invalid":   "Seleccione un perfil de inversor",
	"error.funnel_already_submitted": "Ya completó este paso",
	"error.funnel_session_not_found": "Sesión expirada, empiece de nuevo",
	"error.affiliate_not_found":      "Afiliado no encontrado",
	"error.affiliate_not_eligible":   "Se requiere una inversión confirmada de al menos R$ %s",
	"error.affiliate_exists":         "Ya es afiliado",
	"error.plan_not_found":           "Plan inexistente",
	"error.amount_below_plan":        "Monto inferior al mínimo del plan",
	"error.investment_not_found":     "Inversión no encontrada",
	"error.email_invalid":            "Correo inválido",
	"error.email_exists":             "Correo ya registrado",
	"error.invalid_credentials":      "Correo o contraseña incorrectos",
	"error.pix_unavailable":          "Pago PIX no disponible en este momento",

	"funnel.step.name.title":          "¿Cómo te llamamos?",
	"funnel.step.email.title":         "¿A dónde enviamos tus tokens?",
	"funnel.step.profile.title":       "¿Cuál es tu perfil de inversor?",
	"funnel.profile.beginner":         "Principiante",
	"funnel.profile.intermediate":     "Intermedio",
	"funnel.profile.advanced":         "Avanzado",
	"funnel.profile.distrustful":      "Todavía desconfiado",
	"funnel.reward.title":             "¡Felicidades! Ganaste %d tokens AGD",
	"funnel.reward.cta":               "Elegir mi plan",
	"funnel.opt_out.title":            "Sin prisa",
	"funnel.opt_out.body":             "Te enviaremos contenido para que conozcas el proyecto con calma.",
	"funnel.progress.tokens":          "%d tokens acumulados",
	"error.token_invalid":             "Token inválido o expirado",
	"error.token_revoked":             "Sesión cerrada, inicie sesión de nuevo",
	"error.auth_header_missing":       "Falta la cabecera Authorization",
	"error.auth_header_invalid":       "Cabecera Authorization inválida",
	"error.jwt_secret_missing":        "Autenticación no configurada",
	"error.dashboard_range_invalid":   "Rango de fechas del panel inválido",
	"error.password_min_length":       "La contraseña debe tener al menos %d caracteres",
	"error.password_require_upper":    "La contraseña debe incluir una mayúscula",
	"error.password_require_lower":    "La contraseña debe incluir una minúscula",
	"error.password_require_number":   "La contraseña debe incluir un número",
	"error.password_contains_email":   "La contraseña no puede contener tu correo",
	"error.login_too_many":            "Demasiados intentos de acceso, espere %d segundos",
	"error.rate_limited":              "Demasiadas solicitudes, espere %d segundos",
	"error.rate_limit_unavailable":    "Limitador no disponible, inténtelo de nuevo",
	"error.affiliate_code_required":   "Indique el código de afiliado",
	"error.affiliate_status_invalid":  "Estado de afiliado inválido",
	"error.captcha_invalid":           "Código de verificación incorrecto",
	"error.captcha_required":          "Complete el código de verificación",
	"error.commission_not_found":      "Comisión no encontrada",
	"error.commission_status_invalid": "El estado de la comisión no permite esta operación",
	"error.funnel_language_invalid":   "Idioma no soportado",
	"error.identity_disabled":         "Cuenta deshabilitada",
	"error.investment_not_confirmed":  "La inversión aún no está confirmada",
	"error.investment_status_invalid": "El estado de la inversión no permite esta operación",
	"error.password_weak":             "La contraseña no cumple la política",
	"error.pix_signature_invalid":     "Firma PIX inválida",
	"error.setting_invalid":           "Configuración inválida",
	"checkout.pix.instructions":       "Copie el código PIX y páguelo en la app de su banco.",
	"checkout.pix.expires":            "El código PIX vence en %d minutos",
	"affiliate.dashboard.title":       "Panel de afiliado",
	"affiliate.share.instructions":    "Comparta su enlace. Las referencias se recuerdan durante 48 horas.",
}
