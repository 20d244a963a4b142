package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"janseva/api/internal/complaint"
	"janseva/api/internal/config"
	"janseva/api/internal/export"
	"janseva/api/internal/projection"
	"janseva/api/internal/reconcile"
	"janseva/api/internal/search"
	"janseva/api/internal/store"
	"janseva/api/internal/timeline"
)

// Tracking is the payload of the single-complaint view.
type Tracking struct {
	Complaint complaint.Record `json:"complaint"`
	timeline.Result
	AssignedOfficer   timeline.Officer `json:"assignedOfficer"`
	FeedbackSubmitted bool             `json:"feedbackSubmitted"`
	// FeedbackPrompt is true for a resolved complaint without feedback whose
	// prompt has not been dismissed in the caller's view session.
	FeedbackPrompt bool `json:"feedbackPrompt"`
}

type promptSessionRecord struct {
	expiresAt time.Time
}

type Service struct {
	cfg     config.Config
	store   *store.Store
	search  *search.Service
	exports *export.Service
	now     func() time.Time

	idMu   sync.Mutex
	lastID int64

	promptTTL      time.Duration
	promptMu       sync.Mutex
	promptSessions map[string]promptSessionRecord
}

func New(cfg config.Config, dataStore *store.Store, searchService *search.Service, exportService *export.Service) *Service {
	promptTTL := cfg.PromptSessionTTL
	if promptTTL <= 0 {
		promptTTL = 12 * time.Hour
	}
	return &Service{
		cfg:            cfg,
		store:          dataStore,
		search:         searchService,
		exports:        exportService,
		now:            time.Now,
		promptTTL:      promptTTL,
		promptSessions: make(map[string]promptSessionRecord),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// visible is the reconciled list of profile, newest first.
func (s *Service) visible(ctx context.Context, profile string) []complaint.Record {
	return reconcile.Visible(s.store.Records(profile).List(ctx))
}

func (s *Service) ListComplaints(ctx context.Context, profile string, filter projection.Filter) search.Response {
	return s.search.List(profile, s.visible(ctx, profile), filter)
}

func (s *Service) Summary(ctx context.Context, profile string) projection.Summary {
	return projection.Summarize(s.visible(ctx, profile))
}

// Complaint looks id up in the reconciled list of profile.
func (s *Service) Complaint(ctx context.Context, profile, id string) (complaint.Record, error) {
	record, ok := reconcile.Find(s.visible(ctx, profile), id)
	if !ok {
		return complaint.Record{}, complaintNotFound(id)
	}
	return record, nil
}

func (s *Service) CreateComplaint(ctx context.Context, profile string, in complaint.CreateInput) (complaint.Record, error) {
	if err := complaint.ValidateInput(&in); err != nil {
		return complaint.Record{}, validationError(err)
	}

	now := s.now()
	record := complaint.New(in, s.nextID(ctx, profile, now), now)
	if err := s.store.Records(profile).Create(ctx, record); err != nil {
		return complaint.Record{}, err
	}
	s.search.Index(profile, record)
	log.Printf("app: complaint %s registered for profile %s", record.ID, profile)
	return record, nil
}

// nextID derives an id from now in milliseconds, bumped past the last
// issued id and any id already visible to profile.
func (s *Service) nextID(ctx context.Context, profile string, now time.Time) string {
	taken := make(map[string]struct{})
	for _, record := range s.visible(ctx, profile) {
		taken[record.ID] = struct{}{}
	}

	s.idMu.Lock()
	defer s.idMu.Unlock()

	candidate := now.UnixMilli()
	if candidate <= s.lastID {
		candidate = s.lastID + 1
	}
	for {
		if _, ok := taken[strconv.FormatInt(candidate, 10)]; !ok {
			break
		}
		candidate++
	}
	s.lastID = candidate
	return strconv.FormatInt(candidate, 10)
}

func (s *Service) DeleteComplaint(ctx context.Context, profile, id string) error {
	id = strings.TrimPrefix(strings.TrimSpace(id), "#")
	removed, err := s.store.Records(profile).Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		if reconcile.IsSeed(id) {
			return domainError(http.StatusConflict, "SEED_READ_ONLY", "Demo complaints cannot be deleted", map[string]any{"id": id})
		}
		return complaintNotFound(id)
	}
	s.search.Delete(profile, id)
	return nil
}

// Track assembles the tracking view of one complaint. sessionID identifies
// the caller's view session for feedback prompt suppression; it may be empty.
func (s *Service) Track(ctx context.Context, profile, sessionID, id string) (Tracking, error) {
	record, err := s.Complaint(ctx, profile, id)
	if err != nil {
		return Tracking{}, err
	}

	submitted := s.store.Feedback(profile).HasFeedback(ctx, record.ID)
	return Tracking{
		Complaint:         record,
		Result:            timeline.Synthesize(record, s.now()),
		AssignedOfficer:   timeline.DefaultOfficer(record.Department),
		FeedbackSubmitted: submitted,
		FeedbackPrompt: record.Status == complaint.StatusResolved &&
			!submitted &&
			!s.promptSuppressed(sessionID, profile, record.ID),
	}, nil
}

// WatchSLA streams fresh SLA figures for id every refresh interval until
// ctx ends or fn returns false.
func (s *Service) WatchSLA(ctx context.Context, record complaint.Record, fn func(timeline.Result) bool) error {
	err := timeline.Watch(ctx, record, s.cfg.SLARefresh, s.now, fn)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// SubmitFeedback records satisfaction feedback for a resolved complaint.
// A second submission for the same complaint is refused, although two
// writers racing on the same ledger can still both append.
func (s *Service) SubmitFeedback(ctx context.Context, profile, sessionID, id string, in complaint.FeedbackInput) (complaint.Feedback, error) {
	if err := complaint.ValidateFeedback(&in); err != nil {
		return complaint.Feedback{}, validationError(err)
	}
	record, err := s.Complaint(ctx, profile, id)
	if err != nil {
		return complaint.Feedback{}, err
	}
	if record.Status != complaint.StatusResolved {
		return complaint.Feedback{}, domainError(http.StatusConflict, "NOT_RESOLVED", "Feedback is accepted for resolved complaints only", map[string]any{"status": record.Status})
	}

	ledger := s.store.Feedback(profile)
	if ledger.HasFeedback(ctx, record.ID) {
		return complaint.Feedback{}, domainError(http.StatusConflict, "FEEDBACK_EXISTS", "Feedback already submitted for this complaint", map[string]any{"id": record.ID})
	}

	entry := complaint.Feedback{
		ID:          uuid.NewString(),
		ComplaintID: record.ID,
		Rating:      in.Rating,
		Feedback:    in.Feedback,
		SubmittedAt: s.now().UTC(),
	}
	if err := ledger.Submit(ctx, entry); err != nil {
		return complaint.Feedback{}, err
	}
	s.suppressPrompt(sessionID, profile, record.ID)
	return entry, nil
}

// DismissFeedbackPrompt hides the feedback prompt of id for the rest of the
// caller's view session.
func (s *Service) DismissFeedbackPrompt(ctx context.Context, profile, sessionID, id string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domainError(http.StatusBadRequest, "SESSION_REQUIRED", "X-View-Session header is required", nil)
	}
	record, err := s.Complaint(ctx, profile, id)
	if err != nil {
		return err
	}
	s.suppressPrompt(sessionID, profile, record.ID)
	return nil
}

func promptKey(sessionID, profile, id string) string {
	return sessionID + "\x00" + profile + "\x00" + id
}

func (s *Service) suppressPrompt(sessionID, profile, id string) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	s.promptSessions[promptKey(sessionID, profile, id)] = promptSessionRecord{
		expiresAt: s.now().Add(s.promptTTL),
	}
}

func (s *Service) promptSuppressed(sessionID, profile, id string) bool {
	if strings.TrimSpace(sessionID) == "" {
		return false
	}
	s.promptMu.Lock()
	defer s.promptMu.Unlock()

	now := s.now()
	for key, record := range s.promptSessions {
		if now.After(record.expiresAt) {
			delete(s.promptSessions, key)
		}
	}
	_, ok := s.promptSessions[promptKey(sessionID, profile, id)]
	return ok
}

func (s *Service) Revisions(ctx context.Context, profile string, limit int) ([]store.Revision, error) {
	return s.store.Records(profile).History(ctx, limit)
}

func (s *Service) ComplaintsAt(ctx context.Context, profile, hash string) ([]complaint.Record, error) {
	records, err := s.store.Records(profile).At(ctx, hash)
	switch {
	case err == nil:
		return records, nil
	case errors.Is(err, store.ErrNoJournal), errors.Is(err, store.ErrCorruptSlot):
		return nil, err
	default:
		log.Printf("app: revision %s for profile %s: %v", hash, profile, err)
		return nil, domainError(http.StatusNotFound, "REVISION_NOT_FOUND", "Revision not found", map[string]any{"hash": hash})
	}
}

func (s *Service) ExportHistory(ctx context.Context, profile string, filter projection.Filter) (*export.Result, error) {
	listed := s.ListComplaints(ctx, profile, filter)
	result, err := s.exports.History(listed.Results)
	if err != nil {
		return nil, fmt.Errorf("export history: %w", err)
	}
	return result, nil
}

func (s *Service) Receipt(ctx context.Context, profile, id string) (*export.Result, error) {
	record, err := s.Complaint(ctx, profile, id)
	if err != nil {
		return nil, err
	}
	return s.exports.Receipt(ctx, record)
}

func (s *Service) ArchiveHistory(ctx context.Context, profile string) (string, error) {
	return s.exports.ArchiveHistory(ctx, profile, s.visible(ctx, profile))
}
