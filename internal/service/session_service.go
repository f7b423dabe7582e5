package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"campaign-session/internal/entity"
	"campaign-session/internal/identity"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/pkg/authctx"
	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/pkg/metrics"
	"campaign-session/internal/repository/contract"
	"campaign-session/internal/tracer"
	"campaign-session/pkg/events"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	opCheckAuth      = "check_auth"
	opSignIn         = "sign_in"
	opSignOut        = "sign_out"
	opUpdateProfile  = "update_profile"
	opAddPrompt      = "add_prompt"
	opFetchCampaigns = "fetch_campaigns"

	publishTimeout = 3 * time.Second
)

var fallbackMessages = map[string]string{
	opSignIn:         "Error signing in",
	opSignOut:        "Error logging out",
	opUpdateProfile:  "Error updating user schema",
	opAddPrompt:      "Error adding prompt",
	opFetchCampaigns: "Error fetching campaigns",
}

var allStatuses = []string{
	string(entity.SessionUnauthenticated),
	string(entity.SessionChecking),
	string(entity.SessionAuthenticated),
	string(entity.SessionError),
}

// ISessionService is the only writer of SessionState.
type ISessionService interface {
	// CheckAuth follows the provider's current identity until the returned
	// handle is called. The first identity is resolved before it returns.
	CheckAuth(ctx context.Context) identity.Unsubscribe
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, fields entity.ProfileFields) error
	AddPrompt(ctx context.Context, prompt entity.Prompt) error
	FetchCampaigns(ctx context.Context) error

	State() entity.SessionState
	Campaigns() []entity.Campaign

	// Watch calls fn with a snapshot after every transition, in order. fn
	// must not call back into a transition. The returned func removes it.
	Watch(fn func(entity.SessionState)) func()
}

type watcher struct {
	id int
	fn func(entity.SessionState)
}

type sessionService struct {
	identity  identity.Client
	profiles  contract.ProfileRepository
	campaigns ICampaignService
	tokens    contract.TokenStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       logger.ILogger
	tracer    trace.Tracer

	flight singleflight.Group

	mu         sync.Mutex
	state      entity.SessionState
	generation uint64
	signingIn  bool
	watchers   []watcher
	nextID     int

	// notifyMu keeps watcher delivery in commit order without holding mu.
	notifyMu sync.Mutex
}

// NewSessionService starts in Checking. publisher may be nil.
func NewSessionService(
	identityClient identity.Client,
	profiles contract.ProfileRepository,
	campaigns ICampaignService,
	tokens contract.TokenStore,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) ISessionService {
	m.SetStatus(string(entity.SessionChecking), allStatuses...)
	return &sessionService{
		identity:  identityClient,
		profiles:  profiles,
		campaigns: campaigns,
		tokens:    tokens,
		publisher: publisher,
		metrics:   m,
		log:       log,
		tracer:    tracer.Tracer("session"),
		state:     entity.SessionState{Status: entity.SessionChecking},
	}
}

func (s *sessionService) CheckAuth(ctx context.Context) identity.Unsubscribe {
	ctx, span := s.tracer.Start(ctx, "SessionService.CheckAuth")
	defer span.End()

	s.apply(func(st *entity.SessionState) {
		st.Status = entity.SessionChecking
		st.Profile = nil
		st.ErrorMessage = ""
	})

	// Deliveries outlive the caller's request.
	detached := context.WithoutCancel(ctx)
	stopped := &atomic.Bool{}

	unsubscribe, err := s.identity.ObserveIdentityChanges(func(id *entity.ExternalIdentity) {
		s.onIdentity(detached, stopped, id)
	})
	if err != nil {
		span.RecordError(err)
		s.log.Error("SessionService", "Failed to observe identity changes", map[string]interface{}{"error": err.Error()})
		s.metrics.ObserveOperation(opCheckAuth, metrics.OutcomeFailure, 0)
		s.apply(func(st *entity.SessionState) {
			st.Status = entity.SessionUnauthenticated
			st.Profile = nil
		})
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			stopped.Store(true)
			unsubscribe()
		})
	}
}

// onIdentity resolves one delivered identity. Any later transition
// supersedes it; a stopped subscription applies nothing.
func (s *sessionService) onIdentity(ctx context.Context, stopped *atomic.Bool, id *entity.ExternalIdentity) {
	ctx, span := s.tracer.Start(ctx, "SessionService.onIdentity")
	defer span.End()
	start := time.Now()
	s.metrics.IdentityChanged()

	gen := s.nextGeneration()
	current := func() bool { return s.generation == gen && !stopped.Load() }

	if id == nil {
		s.commit(current, func(st *entity.SessionState) {
			st.Status = entity.SessionUnauthenticated
			st.Profile = nil
			st.ErrorMessage = ""
		})
		s.metrics.ObserveOperation(opCheckAuth, metrics.OutcomeSuccess, time.Since(start))
		return
	}
	span.SetAttributes(attribute.String("identity.uid", id.UID))

	profile, err := s.profiles.GetProfile(authctx.WithIdentity(ctx, id), id.UID)

	// A sign-in in flight provisions the profile itself; don't flash
	// Unauthenticated while it does.
	settled := func() bool { return current() && !s.signingIn }

	switch {
	case err != nil:
		span.RecordError(err)
		s.log.Warn("SessionService", "Profile read failed during auth check", map[string]interface{}{"uid": id.UID, "error": err.Error()})
		s.commit(settled, func(st *entity.SessionState) {
			st.Status = entity.SessionUnauthenticated
			st.Profile = nil
			st.ErrorMessage = ""
		})
		s.metrics.ObserveOperation(opCheckAuth, metrics.OutcomeFailure, time.Since(start))
	case profile == nil:
		s.commit(settled, func(st *entity.SessionState) {
			st.Status = entity.SessionUnauthenticated
			st.Profile = nil
			st.ErrorMessage = ""
		})
		s.metrics.ObserveOperation(opCheckAuth, metrics.OutcomeSuccess, time.Since(start))
	default:
		profile.UID = id.UID
		s.commit(current, func(st *entity.SessionState) {
			st.Status = entity.SessionAuthenticated
			st.Profile = profile
			st.ErrorMessage = ""
		})
		s.metrics.ObserveOperation(opCheckAuth, metrics.OutcomeSuccess, time.Since(start))
	}
}

// SignIn shares one provider round trip between concurrent callers.
func (s *sessionService) SignIn(ctx context.Context) error {
	_, err, _ := s.flight.Do(opSignIn, func() (interface{}, error) {
		return nil, s.signIn(ctx)
	})
	return err
}

func (s *sessionService) signIn(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.SignIn")
	defer span.End()
	start := time.Now()

	s.commit(nil, func(st *entity.SessionState) {
		st.IsBusy = true
		s.signingIn = true
	})

	id, err := s.identity.SignInInteractive(ctx)
	if err != nil {
		s.fail(span, opSignIn, start, err, true)
		return err
	}
	span.SetAttributes(attribute.String("identity.uid", id.UID))
	ctx = authctx.WithIdentity(ctx, id)

	profile, provisioned, err := s.provision(ctx, id)
	if err != nil {
		s.fail(span, opSignIn, start, err, true)
		return err
	}

	token, err := s.identity.CurrentIdentityToken(ctx)
	if err != nil {
		s.fail(span, opSignIn, start, err, true)
		return err
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		s.log.Warn("SessionService", "Failed to persist token artifact", map[string]interface{}{"error": err.Error()})
	}

	profile.UID = id.UID
	s.apply(func(st *entity.SessionState) {
		st.Status = entity.SessionAuthenticated
		st.Profile = profile
		st.ErrorMessage = ""
		st.IsBusy = false
		s.signingIn = false
	})

	s.publish(ctx, events.NewUserSignedIn(id.UID, id.Email, id.Provider))
	if provisioned {
		s.publish(ctx, events.NewProfileProvisioned(id.UID))
	}
	s.metrics.ObserveOperation(opSignIn, metrics.OutcomeSuccess, time.Since(start))
	s.log.Info("SessionService", "User signed in", map[string]interface{}{"uid": id.UID, "provisioned": provisioned})
	return nil
}

func (s *sessionService) provision(ctx context.Context, id *entity.ExternalIdentity) (*entity.UserProfile, bool, error) {
	existing, err := s.profiles.GetProfile(ctx, id.UID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	created, err := s.profiles.CreateProfileIfAbsent(ctx, id.UID, id.ProfileDefaults())
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *sessionService) SignOut(ctx context.Context) error {
	_, err, _ := s.flight.Do(opSignOut, func() (interface{}, error) {
		return nil, s.signOut(ctx)
	})
	return err
}

func (s *sessionService) signOut(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.SignOut")
	defer span.End()
	start := time.Now()

	var uid string
	s.commit(nil, func(st *entity.SessionState) {
		st.IsBusy = true
		if st.Profile != nil {
			uid = st.Profile.UID
		}
	})

	if err := s.identity.SignOut(ctx); err != nil {
		s.fail(span, opSignOut, start, err, true)
		return nil
	}
	if err := s.tokens.Delete(ctx); err != nil {
		s.fail(span, opSignOut, start, apperror.WriteFailure(err), true)
		return nil
	}

	s.apply(func(st *entity.SessionState) {
		*st = entity.SessionState{Status: entity.SessionUnauthenticated}
	})

	if uid != "" {
		s.publish(ctx, events.NewUserSignedOut(uid))
	}
	s.metrics.ObserveOperation(opSignOut, metrics.OutcomeSuccess, time.Since(start))
	s.log.Info("SessionService", "User signed out", map[string]interface{}{"uid": uid})
	return nil
}

// authenticated returns the live identity when the session holds that
// identity's profile. A recorded failure does not sign the user out.
func (s *sessionService) authenticated() (*entity.ExternalIdentity, error) {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	id := s.identity.Current()
	if !holdsProfileOf(st, id) {
		return nil, apperror.ErrNotAuthenticated
	}
	return id, nil
}

// holdsProfileOf reports whether st carries id's profile, either
// Authenticated or in Error after a failed operation.
func holdsProfileOf(st entity.SessionState, id *entity.ExternalIdentity) bool {
	if id == nil || st.Profile == nil || st.Profile.UID != id.UID {
		return false
	}
	return st.Status == entity.SessionAuthenticated || st.Status == entity.SessionError
}

// settle clears a recorded failure once an operation for id succeeds.
func settle(st *entity.SessionState, id *entity.ExternalIdentity) {
	if st.Status == entity.SessionError && holdsProfileOf(*st, id) {
		st.Status = entity.SessionAuthenticated
		st.ErrorMessage = ""
	}
}

func (s *sessionService) UpdateProfile(ctx context.Context, fields entity.ProfileFields) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.UpdateProfile")
	defer span.End()
	start := time.Now()

	id, err := s.authenticated()
	if err != nil {
		s.metrics.ObserveOperation(opUpdateProfile, metrics.OutcomeRejected, time.Since(start))
		return err
	}
	if fields.IsEmpty() {
		return nil
	}

	s.commit(nil, func(st *entity.SessionState) { st.IsBusy = true })

	if _, err := s.profiles.MergeProfileFields(authctx.WithIdentity(ctx, id), id.UID, fields); err != nil {
		s.fail(span, opUpdateProfile, start, err, true)
		return nil
	}

	s.apply(func(st *entity.SessionState) {
		st.IsBusy = false
		if !holdsProfileOf(*st, id) {
			return
		}
		settle(st, id)
		fields.Apply(st.Profile)
		st.Profile.Email = id.Email
	})

	s.metrics.ObserveOperation(opUpdateProfile, metrics.OutcomeSuccess, time.Since(start))
	return nil
}

// AddPrompt leaves the local Messages untouched; callers re-read the
// profile to see the appended prompt.
func (s *sessionService) AddPrompt(ctx context.Context, prompt entity.Prompt) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.AddPrompt")
	defer span.End()
	start := time.Now()

	id, err := s.authenticated()
	if err != nil {
		s.metrics.ObserveOperation(opAddPrompt, metrics.OutcomeRejected, time.Since(start))
		return err
	}

	if err := s.profiles.AppendMessage(authctx.WithIdentity(ctx, id), id.UID, prompt); err != nil {
		s.fail(span, opAddPrompt, start, err, false)
		return nil
	}
	s.clearFailure(id)

	s.metrics.ObserveOperation(opAddPrompt, metrics.OutcomeSuccess, time.Since(start))
	return nil
}

func (s *sessionService) FetchCampaigns(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.FetchCampaigns")
	defer span.End()
	start := time.Now()

	campaigns, err := s.campaigns.FetchAll(ctx)
	if err != nil {
		s.fail(span, opFetchCampaigns, start, err, false)
		return nil
	}

	s.clearFailure(s.identity.Current())
	s.metrics.SetCampaignCount(len(campaigns))
	s.metrics.ObserveOperation(opFetchCampaigns, metrics.OutcomeSuccess, time.Since(start))
	return nil
}

func (s *sessionService) State() entity.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

func (s *sessionService) Campaigns() []entity.Campaign {
	return s.campaigns.Snapshot()
}

func (s *sessionService) Watch(fn func(entity.SessionState)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.watchers = append(s.watchers, watcher{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, w := range s.watchers {
				if w.id == id {
					s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

// clearFailure returns an Error session holding id's profile to
// Authenticated. Other states are left alone.
func (s *sessionService) clearFailure(id *entity.ExternalIdentity) {
	s.mu.Lock()
	pending := s.state.Status == entity.SessionError && holdsProfileOf(s.state, id)
	s.mu.Unlock()
	if !pending {
		return
	}
	s.apply(func(st *entity.SessionState) { settle(st, id) })
}

// fail records err into the session: Error status, previous profile kept.
func (s *sessionService) fail(span trace.Span, op string, start time.Time, err error, clearBusy bool) {
	message := err.Error()
	if message == "" {
		message = fallbackMessages[op]
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	s.log.Error("SessionService", fallbackMessages[op], map[string]interface{}{"operation": op, "error": message})
	s.metrics.ObserveOperation(op, metrics.OutcomeFailure, time.Since(start))

	s.apply(func(st *entity.SessionState) {
		st.Status = entity.SessionError
		st.ErrorMessage = message
		if clearBusy {
			st.IsBusy = false
			s.signingIn = false
		}
	})
}

func (s *sessionService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("SessionService", "Failed to publish lifecycle event", map[string]interface{}{"event": event.EventType(), "error": err.Error()})
	}
}

func (s *sessionService) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// apply commits a transition that supersedes every in-flight identity
// resolution.
func (s *sessionService) apply(mutate func(*entity.SessionState)) {
	s.commit(func() bool {
		s.generation++
		return true
	}, mutate)
}

// commit runs accept and mutate under mu, then notifies watchers. accept
// may be nil.
func (s *sessionService) commit(accept func() bool, mutate func(*entity.SessionState)) bool {
	s.mu.Lock()
	if accept != nil && !accept() {
		s.mu.Unlock()
		return false
	}
	mutate(&s.state)
	snapshot := s.state.Snapshot()
	watchers := append([]watcher(nil), s.watchers...)

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.metrics.SetStatus(string(snapshot.Status), allStatuses...)
	for _, w := range watchers {
		w.fn(snapshot.Snapshot())
	}
	return true
}
