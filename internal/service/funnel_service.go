package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/events"
	"github.com/agd-funnel/internal/funnel"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/queue"
	"github.com/agd-funnel/internal/repository"

	"github.com/google/uuid"
)

const defaultFunnelSessionTTL = 2 * time.Hour

// FunnelSessionStore 漏斗会话存储
type FunnelSessionStore interface {
	Load(ctx context.Context, id string) (*funnel.Session, bool, error)
	Save(ctx context.Context, session *funnel.Session, ttl time.Duration) error
}

// MemoryFunnelStore 进程内会话存储（未启用 Redis 时使用）
type MemoryFunnelStore struct {
	mu       sync.Mutex
	sessions map[string]memoryFunnelEntry
	now      func() time.Time
}

type memoryFunnelEntry struct {
	session   funnel.Session
	expiresAt time.Time
}

// NewMemoryFunnelStore 创建进程内会话存储
func NewMemoryFunnelStore() *MemoryFunnelStore {
	return &MemoryFunnelStore{sessions: map[string]memoryFunnelEntry{}, now: time.Now}
}

// Load 读取会话，过期会话视为不存在
func (m *MemoryFunnelStore) Load(_ context.Context, id string) (*funnel.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, id)
		return nil, false, nil
	}
	session := entry.session
	return &session, true, nil
}

// Save 写入会话
func (m *MemoryFunnelStore) Save(_ context.Context, session *funnel.Session, ttl time.Duration) error {
	if session == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = memoryFunnelEntry{session: *session, expiresAt: m.now().Add(ttl)}
	return nil
}

// FunnelService 漏斗业务服务
type FunnelService struct {
	store       FunnelSessionStore
	leadRepo    repository.LeadRepository
	attribution *AttributionService
	queueClient *queue.Client
	publisher   events.Publisher
	ttl         time.Duration
	now         func() time.Time
}

// NewFunnelService 创建漏斗服务
func NewFunnelService(
	store FunnelSessionStore,
	leadRepo repository.LeadRepository,
	attribution *AttributionService,
	queueClient *queue.Client,
	publisher events.Publisher,
	ttl time.Duration,
) *FunnelService {
	if store == nil {
		store = NewMemoryFunnelStore()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if ttl <= 0 {
		ttl = defaultFunnelSessionTTL
	}
	return &FunnelService{
		store:       store,
		leadRepo:    leadRepo,
		attribution: attribution,
		queueClient: queueClient,
		publisher:   publisher,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Start 开启新的漏斗会话
func (s *FunnelService) Start(ctx context.Context, language, visitorKey string) (*funnel.Session, error) {
	if strings.TrimSpace(language) != "" {
		if _, err := funnel.NormalizeLanguage(language); err != nil {
			return nil, ErrFunnelLanguageInvalid
		}
	}
	session := funnel.NewSession(uuid.NewString(), language, visitorKey, s.now())
	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return nil, upstream("save funnel session", err)
	}
	return session, nil
}

// Get 读取漏斗会话
func (s *FunnelService) Get(ctx context.Context, id string) (*funnel.Session, error) {
	sessionID := strings.TrimSpace(id)
	if sessionID == "" {
		return nil, ErrFunnelSessionNotFound
	}
	session, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, upstream("load funnel session", err)
	}
	if !ok {
		return nil, ErrFunnelSessionNotFound
	}
	return session, nil
}

// Advance 推进漏斗；到达提交状态时尽力投递一次线索记录，投递失败不影响状态
func (s *FunnelService) Advance(ctx context.Context, id, input string, attribution *AttributionSession) (*funnel.Session, funnel.Result, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, funnel.Result{}, err
	}
	result, err := funnel.Advance(session, input, s.now())
	if err != nil {
		return session, result, mapFunnelError(err)
	}
	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return nil, funnel.Result{}, upstream("save funnel session", err)
	}
	if result.Submitted {
		s.emitSubmission(ctx, session, s.attributedCode(attribution))
	}
	return session, result, nil
}

func (s *FunnelService) attributedCode(session *AttributionSession) string {
	if s.attribution == nil || session == nil {
		return ""
	}
	resolved, err := s.attribution.Resolve(session)
	if err != nil {
		logger.Warnw("funnel_attribution_resolve_failed", "visitor_key", session.VisitorKey, "error", err)
		return ""
	}
	if resolved == nil {
		return ""
	}
	return resolved.Code
}

func (s *FunnelService) emitSubmission(ctx context.Context, session *funnel.Session, affiliateCode string) {
	submittedAt := s.now()
	if session.SubmittedAt != nil {
		submittedAt = *session.SubmittedAt
	}
	payload := queue.LeadSubmittedPayload{
		SessionID:     session.ID,
		Name:          session.Name,
		Email:         session.Email,
		Profile:       session.Profile,
		Language:      session.Language,
		Tokens:        session.Tokens,
		Branch:        session.Branch,
		VisitorKey:    session.VisitorKey,
		AffiliateCode: affiliateCode,
		SubmittedAt:   submittedAt,
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueLeadSubmitted(payload)
		if err == nil {
			return
		}
		logger.Warnw("funnel_submit_enqueue_failed", "session_id", session.ID, "error", err)
	}
	if err := s.PersistLead(ctx, payload); err != nil {
		logger.Warnw("funnel_submit_emit_failed", "session_id", session.ID, "error", err)
	}
}

// PersistLead 落库线索并投递事件，同一会话至多落库一次
func (s *FunnelService) PersistLead(ctx context.Context, payload queue.LeadSubmittedPayload) error {
	lead := &models.Lead{
		SessionID:      payload.SessionID,
		Name:           payload.Name,
		Email:          payload.Email,
		ProfileSegment: payload.Profile,
		LanguageCode:   payload.Language,
		TokensEarned:   payload.Tokens,
		Branch:         payload.Branch,
		VisitorKey:     payload.VisitorKey,
		AffiliateCode:  payload.AffiliateCode,
		SubmittedAt:    payload.SubmittedAt,
	}
	created, err := s.leadRepo.CreateOnce(lead)
	if err != nil {
		return upstream("persist lead", err)
	}
	if !created {
		logger.Debugw("funnel_lead_already_persisted", "session_id", payload.SessionID)
		return nil
	}
	body, err := events.Encode(constants.EventLeadSubmitted, payload.SessionID, payload.SubmittedAt, payload)
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, constants.EventLeadSubmitted, body, payload.SessionID); err != nil {
		logger.Warnw("funnel_lead_event_publish_failed", "session_id", payload.SessionID, "error", err)
	}
	return nil
}

// ListLeads 后台查询线索
func (s *FunnelService) ListLeads(filter repository.LeadListFilter) ([]models.Lead, int64, error) {
	return s.leadRepo.List(filter)
}

func mapFunnelError(err error) error {
	switch {
	case errors.Is(err, funnel.ErrInvalidName):
		return ErrFunnelNameRequired
	case errors.Is(err, funnel.ErrInvalidEmail):
		return ErrFunnelEmailInvalid
	case errors.Is(err, funnel.ErrInvalidProfile):
		return ErrFunnelProfileInvalid
	case errors.Is(err, funnel.ErrAlreadySubmitted):
		return ErrFunnelAlreadySubmitted
	case errors.Is(err, funnel.ErrInvalidLanguage):
		return ErrFunnelLanguageInvalid
	default:
		return err
	}
}
