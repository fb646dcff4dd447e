// Package contact accepts inquiries about a listing, stores them and
// forwards them to the agent.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/julianbeese/estates/internal/domain"
)

const (
	MessageSent   = "Your message has been sent successfully!"
	MessageFailed = "Your message could not be delivered. Please try again later."
)

var phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)

var validate *validator.Validate

func validPhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("phone", validPhone); err != nil {
		panic(fmt.Sprintf("contact: register phone validation: %v", err))
	}
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Request is a submitted contact form
type Request struct {
	ListingID string `json:"listingId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// Result is what the submitter is told
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	InquiryID string `json:"inquiryId,omitempty"`
}

// ValidationError maps form fields to human readable problems
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid inquiry: " + strings.Join(parts, "; ")
}

// ListingFinder resolves the listing an inquiry is about
type ListingFinder interface {
	ByID(ctx context.Context, id string) (*domain.Listing, error)
}

// Store persists inquiries and their delivery state
type Store interface {
	CreateInquiry(ctx context.Context, q *domain.Inquiry) error
	UpdateInquiryStatus(ctx context.Context, id, status, errorMsg string) error
	LogActivity(ctx context.Context, log *domain.ActivityLog) error
}

// Notifier delivers an inquiry to the agent
type Notifier interface {
	NotifyInquiry(ctx context.Context, listing *domain.Listing, q *domain.Inquiry) error
}

// Service handles contact submissions
type Service struct {
	listings ListingFinder
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a contact service. store and notifier may be nil.
func NewService(listings ListingFinder, store Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		listings: listings,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Validate checks a request against the form rules
func Validate(req Request) error {
	q := toInquiry(req)
	err := validate.Struct(q)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

// Submit validates req, checks that the listing exists, stores the inquiry
// and notifies the agent. Delivery problems are reported in the Result; the
// returned error is reserved for invalid input, unknown listings
// (domain.ErrNotFound) and storage failures.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	req = normalize(req)
	if err := Validate(req); err != nil {
		return nil, err
	}

	listing, err := s.listings.ByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lookup listing %s: %w", req.ListingID, err)
	}

	q := toInquiry(req)
	q.ID = uuid.NewString()
	q.Status = domain.InquiryStatusPending
	q.CreatedAt = s.now()

	if s.store != nil {
		if err := s.store.CreateInquiry(ctx, &q); err != nil {
			return nil, fmt.Errorf("store inquiry: %w", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyInquiry(ctx, listing, &q); err != nil {
			s.logger.Error("inquiry delivery failed", "inquiry_id", q.ID, "listing_id", q.ListingID, "error", err)
			s.record(ctx, &q, domain.InquiryStatusFailed, err.Error())
			return &Result{Success: false, Message: MessageFailed, InquiryID: q.ID}, nil
		}
	}

	s.record(ctx, &q, domain.InquiryStatusSent, "")
	s.logger.Info("inquiry sent", "inquiry_id", q.ID, "listing_id", q.ListingID)
	return &Result{Success: true, Message: MessageSent, InquiryID: q.ID}, nil
}

// record updates the stored status and the activity log. Failures here are
// logged only; the inquiry itself is already stored.
func (s *Service) record(ctx context.Context, q *domain.Inquiry, status, errMsg string) {
	q.Status = status
	q.ErrorMsg = errMsg
	if s.store == nil {
		return
	}

	if err := s.store.UpdateInquiryStatus(ctx, q.ID, status, errMsg); err != nil {
		s.logger.Warn("inquiry status update failed", "inquiry_id", q.ID, "error", err)
	}

	action := domain.ActionInquirySent
	if status == domain.InquiryStatusFailed {
		action = domain.ActionInquiryFailed
	}
	err := s.store.LogActivity(ctx, &domain.ActivityLog{
		Action:     action,
		EntityType: "listing",
		EntityID:   q.ListingID,
		Details:    q.ID,
		ErrorMsg:   errMsg,
	})
	if err != nil {
		s.logger.Warn("activity log failed", "inquiry_id", q.ID, "error", err)
	}
}

func normalize(req Request) Request {
	req.ListingID = strings.TrimSpace(req.ListingID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)
	return req
}

func toInquiry(req Request) domain.Inquiry {
	return domain.Inquiry{
		ListingID: req.ListingID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		switch fe.Tag() {
		case "max":
			return "Name must be at most 50 characters"
		default:
			return "Name must be at least 2 characters"
		}
	case "email":
		return "Please enter a valid email address"
	case "phone":
		switch fe.Tag() {
		case "min", "required":
			return "Phone number must be at least 10 characters"
		case "max":
			return "Phone number must be at most 15 characters"
		default:
			return "Please enter a valid phone number"
		}
	case "message":
		switch fe.Tag() {
		case "max":
			return "Message must be at most 500 characters"
		default:
			return "Message must be at least 10 characters"
		}
	case "listingId":
		return "Listing is required"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
