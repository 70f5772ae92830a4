package usecases

import (
	"context"
	"fmt"
	"sort"

	"streamgate/internal/domain/application"
	"streamgate/internal/domain/session"
	"streamgate/internal/domain/subscription"
	"streamgate/internal/infrastructure/provisioning"
)

type fakeSessionRepo struct {
	sessions map[string]*session.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*session.Session)}
}

func sessionKey(userID string, createdAtMilli int64) string {
	return fmt.Sprintf("%s/%d", userID, createdAtMilli)
}

func (r *fakeSessionRepo) Create(ctx context.Context, sess *session.Session) error {
	r.sessions[sessionKey(sess.UserID(), sess.CreatedAtMilli())] = sess
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, userID string, createdAtMilli int64) (*session.Session, error) {
	sess, ok := r.sessions[sessionKey(userID, createdAtMilli)]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

func (r *fakeSessionRepo) ListByUser(ctx context.Context, userID string) ([]*session.Session, error) {
	var out []*session.Session
	for _, sess := range r.sessions {
		if sess.UserID() == userID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListOpen(ctx context.Context) ([]*session.Session, error) {
	var out []*session.Session
	for _, sess := range r.sessions {
		if sess.IsOpen() {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAtMilli() < out[j].CreatedAtMilli() })
	return out, nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, sess *session.Session) error {
	key := sessionKey(sess.UserID(), sess.CreatedAtMilli())
	if _, ok := r.sessions[key]; !ok {
		return session.ErrSessionNotFound
	}
	r.sessions[key] = sess
	return nil
}

type fakeSubscriptionRepo struct {
	subscriptions map[string]*subscription.Subscription
	// conflictsLeft makes the next N conditional debits fail.
	conflictsLeft int
	debits        []int64
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subscriptions: make(map[string]*subscription.Subscription)}
}

func (r *fakeSubscriptionRepo) put(sub *subscription.Subscription) {
	r.subscriptions[sessionKey(sub.UserID(), sub.CreatedAtMilli())] = sub
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.put(sub)
	return nil
}

func (r *fakeSubscriptionRepo) Get(ctx context.Context, userID string, createdAtMilli int64) (*subscription.Subscription, error) {
	sub, ok := r.subscriptions[sessionKey(userID, createdAtMilli)]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (r *fakeSubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, sub := range r.subscriptions {
		if sub.UserID() == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	r.put(sub)
	return nil
}

func (r *fakeSubscriptionRepo) DebitRemaining(ctx context.Context, userID string, createdAtMilli int64, previousRemainingMs, durationMs int64) error {
	sub, ok := r.subscriptions[sessionKey(userID, createdAtMilli)]
	if !ok {
		return subscription.ErrSubscriptionNotFound
	}
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return subscription.ErrQuotaConflict
	}
	if sub.TotalRemainingMs() != previousRemainingMs {
		return subscription.ErrQuotaConflict
	}
	if err := sub.DebitTime(durationMs); err != nil {
		return err
	}
	r.debits = append(r.debits, durationMs)
	return nil
}

func (r *fakeSubscriptionRepo) Delete(ctx context.Context, userID string, createdAtMilli int64) error {
	delete(r.subscriptions, sessionKey(userID, createdAtMilli))
	return nil
}

type fakeApplicationRepo struct {
	applications map[string]*application.Application
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{applications: make(map[string]*application.Application)}
}

func (r *fakeApplicationRepo) Create(ctx context.Context, app *application.Application) error {
	r.applications[app.ID()] = app
	return nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id string) (*application.Application, error) {
	app, ok := r.applications[id]
	if !ok {
		return nil, application.ErrApplicationNotFound
	}
	return app, nil
}

func (r *fakeApplicationRepo) List(ctx context.Context) ([]*application.Application, error) {
	var out []*application.Application
	for _, app := range r.applications {
		out = append(out, app)
	}
	return out, nil
}

type fakeProvisioner struct {
	statuses     map[string]*provisioning.SessionStatus
	entitled     *provisioning.EntitledSession
	entitleErr   error
	getErr       error
	terminated   []string
	terminateRes *provisioning.SessionStatus
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{statuses: make(map[string]*provisioning.SessionStatus)}
}

func (p *fakeProvisioner) EntitleSession(ctx context.Context, applicationRef string) (*provisioning.EntitledSession, error) {
	if p.entitleErr != nil {
		return nil, p.entitleErr
	}
	return p.entitled, nil
}

func (p *fakeProvisioner) GetSession(ctx context.Context, applicationRef, sessionID string) (*provisioning.SessionStatus, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	status, ok := p.statuses[sessionID]
	if !ok {
		return nil, provisioning.ErrSessionNotFound
	}
	return status, nil
}

func (p *fakeProvisioner) TerminateSession(ctx context.Context, applicationRef, sessionID string) (*provisioning.SessionStatus, error) {
	p.terminated = append(p.terminated, sessionID)
	if p.terminateRes != nil {
		return p.terminateRes, nil
	}
	status, ok := p.statuses[sessionID]
	if !ok {
		return nil, provisioning.ErrSessionNotFound
	}
	return status, nil
}
