package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"campaign-session/internal/entity"
	"campaign-session/internal/identity"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/pkg/metrics"
	"campaign-session/internal/repository/memory"
	"campaign-session/pkg/events"
)

// fakeIdentity is an identity.Client over a real ChangeBus with injectable
// provider outcomes.
type fakeIdentity struct {
	bus *identity.ChangeBus

	mu         sync.Mutex
	next       *entity.ExternalIdentity
	signInErr  error
	signOutErr error
	observeErr error
	gate       chan struct{}

	signInCalls  atomic.Int32
	signOutCalls atomic.Int32
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{bus: identity.NewChangeBus(logger.NewNopLogger())}
}

func (f *fakeIdentity) willSignInAs(id *entity.ExternalIdentity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = id
}

func (f *fakeIdentity) SignInInteractive(ctx context.Context) (*entity.ExternalIdentity, error) {
	f.signInCalls.Add(1)
	f.mu.Lock()
	next, err, gate := f.next.Clone(), f.signInErr, f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, apperror.Cancelled(ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, apperror.ProviderFailure(errors.New("no account configured"))
	}
	if err := f.bus.Set(next); err != nil {
		return nil, apperror.ProviderFailure(err)
	}
	return next, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signOutCalls.Add(1)
	f.mu.Lock()
	err := f.signOutErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.bus.Set(nil)
}

func (f *fakeIdentity) ObserveIdentityChanges(fn func(*entity.ExternalIdentity)) (identity.Unsubscribe, error) {
	f.mu.Lock()
	err := f.observeErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.bus.Observe(fn)
}

func (f *fakeIdentity) CurrentIdentityToken(ctx context.Context) (string, error) {
	cur := f.bus.Current()
	if cur == nil {
		return "", apperror.NotSignedIn()
	}
	return "token-" + cur.UID, nil
}

func (f *fakeIdentity) Current() *entity.ExternalIdentity {
	return f.bus.Current()
}

// flakyProfiles wraps the memory repository with failure injection.
type flakyProfiles struct {
	*memory.ProfileRepository

	mu        sync.Mutex
	getErr    error
	createErr error
	mergeErr  error
	appendErr error
	getGate   chan struct{}

	// dropCreates returns the defaults without storing them.
	dropCreates bool
}

func newFlakyProfiles() *flakyProfiles {
	return &flakyProfiles{ProfileRepository: memory.NewProfileRepository()}
}

func (r *flakyProfiles) GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	r.mu.Lock()
	err, gate := r.getErr, r.getGate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return r.ProfileRepository.GetProfile(ctx, uid)
}

func (r *flakyProfiles) CreateProfileIfAbsent(ctx context.Context, uid string, defaults entity.UserProfile) (*entity.UserProfile, error) {
	r.mu.Lock()
	err, drop := r.createErr, r.dropCreates
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if drop {
		defaults.UID = uid
		defaults.Messages = entity.Messages{}
		return &defaults, nil
	}
	return r.ProfileRepository.CreateProfileIfAbsent(ctx, uid, defaults)
}

func (r *flakyProfiles) MergeProfileFields(ctx context.Context, uid string, fields entity.ProfileFields) (*entity.UserProfile, error) {
	r.mu.Lock()
	err := r.mergeErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.ProfileRepository.MergeProfileFields(ctx, uid, fields)
}

func (r *flakyProfiles) AppendMessage(ctx context.Context, uid string, prompt entity.Prompt) error {
	r.mu.Lock()
	err := r.appendErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.ProfileRepository.AppendMessage(ctx, uid, prompt)
}

type flakyCampaigns struct {
	*memory.CampaignRepository
	err error
}

func (r *flakyCampaigns) FindAll(ctx context.Context) ([]entity.Campaign, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.CampaignRepository.FindAll(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type harness struct {
	svc       ISessionService
	identity  *fakeIdentity
	profiles  *flakyProfiles
	campaigns *flakyCampaigns
	tokens    *memory.TokenStore
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newHarness(seed ...entity.Campaign) *harness {
	h := &harness{
		identity:  newFakeIdentity(),
		profiles:  newFlakyProfiles(),
		campaigns: &flakyCampaigns{CampaignRepository: memory.NewCampaignRepository(seed...)},
		tokens:    memory.NewTokenStore("authToken"),
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
	}
	log := logger.NewNopLogger()
	campaignSvc := NewCampaignService(h.campaigns, memory.NewCampaignCache(), log)
	h.svc = NewSessionService(h.identity, h.profiles, campaignSvc, h.tokens, h.publisher, h.metrics, log)
	return h
}

func (h *harness) close() {
	_ = h.identity.bus.Close()
}

func ada() *entity.ExternalIdentity {
	return &entity.ExternalIdentity{UID: "u1", Email: "ada@example.com", Provider: "google.com"}
}

func strPtr(s string) *string {
	return &s
}
