package contact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/julianbeese/estates/internal/catalog"
	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	inquiries map[string]domain.Inquiry
	activity  []domain.ActivityLog
	failWrite bool
}

func newMemStore() *memStore {
	return &memStore{inquiries: map[string]domain.Inquiry{}}
}

func (m *memStore) CreateInquiry(ctx context.Context, q *domain.Inquiry) error {
	if m.failWrite {
		return errors.New("database is locked")
	}
	m.inquiries[q.ID] = *q
	return nil
}

func (m *memStore) UpdateInquiryStatus(ctx context.Context, id, status, errorMsg string) error {
	q := m.inquiries[id]
	q.Status = status
	q.ErrorMsg = errorMsg
	m.inquiries[id] = q
	return nil
}

func (m *memStore) LogActivity(ctx context.Context, log *domain.ActivityLog) error {
	m.activity = append(m.activity, *log)
	return nil
}

type stubNotifier struct {
	err  error
	sent []string
}

func (n *stubNotifier) NotifyInquiry(ctx context.Context, l *domain.Listing, q *domain.Inquiry) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, l.ID)
	return nil
}

func validRequest() Request {
	return Request{
		ListingID: "1",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Phone:     "+44 (20) 7946",
		Message:   "Is this flat still available?",
	}
}

func newService(store *memStore, n Notifier) *Service {
	repo := catalog.NewStatic(testutil.FiveListings())
	return NewService(repo, store, n, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestValidateAcceptsValidRequest(t *testing.T) {
	assert.NoError(t, Validate(validRequest()))
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
		msg    string
	}{
		{"short name", func(r *Request) { r.Name = "A" }, "name", "Name must be at least 2 characters"},
		{"long name", func(r *Request) { r.Name = strings.Repeat("a", 51) }, "name", "Name must be at most 50 characters"},
		{"bad email", func(r *Request) { r.Email = "not-an-email" }, "email", "Please enter a valid email address"},
		{"short phone", func(r *Request) { r.Phone = "12345" }, "phone", "Phone number must be at least 10 characters"},
		{"long phone", func(r *Request) { r.Phone = "1234567890123456" }, "phone", "Phone number must be at most 15 characters"},
		{"letters in phone", func(r *Request) { r.Phone = "0123abc4567" }, "phone", "Please enter a valid phone number"},
		{"short message", func(r *Request) { r.Message = "Hi" }, "message", "Message must be at least 10 characters"},
		{"long message", func(r *Request) { r.Message = strings.Repeat("x", 501) }, "message", "Message must be at most 500 characters"},
		{"missing listing", func(r *Request) { r.ListingID = "" }, "listingId", "Listing is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := Validate(req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Fields[tt.field])
			assert.Len(t, verr.Fields, 1)
		})
	}
}

func TestPhoneTagRegistered(t *testing.T) {
	assert.NoError(t, validate.Var("+44 (0)7700 900123", "phone"))
	assert.Error(t, validate.Var("07700-CALL-ME", "phone"))
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	store := newMemStore()
	n := &stubNotifier{}
	svc := newService(store, n)

	res, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, MessageSent, res.Message)
	require.Contains(t, store.inquiries, res.InquiryID)
	assert.Equal(t, domain.InquiryStatusSent, store.inquiries[res.InquiryID].Status)
	assert.Equal(t, []string{"1"}, n.sent)
	require.Len(t, store.activity, 1)
	assert.Equal(t, domain.ActionInquirySent, store.activity[0].Action)
}

func TestSubmitUnknownListing(t *testing.T) {
	store := newMemStore()
	svc := newService(store, &stubNotifier{})

	req := validRequest()
	req.ListingID = "404"
	_, err := svc.Submit(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.inquiries)
}

func TestSubmitInvalidNeverStores(t *testing.T) {
	store := newMemStore()
	svc := newService(store, &stubNotifier{})

	req := validRequest()
	req.Email = "nope"
	_, err := svc.Submit(context.Background(), req)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, store.inquiries)
}

func TestSubmitDeliveryFailure(t *testing.T) {
	store := newMemStore()
	svc := newService(store, &stubNotifier{err: errors.New("telegram unreachable")})

	res, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, MessageFailed, res.Message)
	q := store.inquiries[res.InquiryID]
	assert.Equal(t, domain.InquiryStatusFailed, q.Status)
	assert.Equal(t, "telegram unreachable", q.ErrorMsg)
	assert.Equal(t, domain.ActionInquiryFailed, store.activity[0].Action)
}

func TestSubmitStorageFailure(t *testing.T) {
	store := newMemStore()
	store.failWrite = true
	n := &stubNotifier{}
	svc := newService(store, n)

	_, err := svc.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.Empty(t, n.sent)
}

func TestSubmitWithoutStoreOrNotifier(t *testing.T) {
	svc := NewService(catalog.NewStatic(testutil.FiveListings()), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.InquiryID)
}

func TestSubmitTrimsInput(t *testing.T) {
	store := newMemStore()
	svc := newService(store, &stubNotifier{})

	req := validRequest()
	req.Name = "  Ada  "
	res, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Ada", store.inquiries[res.InquiryID].Name)
}
