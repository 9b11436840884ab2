package inkwell

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calmsite/inkwell/sanitize"
)

// PostInput is the editable portion of a post as submitted by the editor form.
type PostInput struct {
	Title    string
	Content  string // raw HTML from the rich-text editor, sanitized on save
	Category string
	Featured bool
	Image    string
	Sources  []string
}

// computeStatus maps the requested publish intent and the actor's role to
// the resulting post status. It is deliberately pure: the whole approval
// workflow hangs off this table.
//
//	publish=false, any role    -> draft
//	publish=true,  super-admin -> published
//	publish=true,  author      -> pending_approval (authors cannot self-publish)
func computeStatus(publish bool, role Role) Status {
	if !publish {
		return StatusDraft
	}
	if role == RoleSuperAdmin {
		return StatusPublished
	}
	return StatusPendingApproval
}

// Lifecycle gates every post mutation by role and ownership and computes
// status transitions. All enforcement happens here, in the application
// layer; the store is pure persistence.
type Lifecycle struct {
	store  *Store
	policy *sanitize.Policy
}

// NewLifecycle creates a Lifecycle over the given store. Content passed to
// Create and Update is cleaned with policy before it is stored.
func NewLifecycle(store *Store, policy *sanitize.Policy) *Lifecycle {
	return &Lifecycle{store: store, policy: policy}
}

func validateInput(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if strings.TrimSpace(in.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	return nil
}

// canMutate reports whether actor may modify a post owned by ownerID.
func canMutate(actor *Identity, ownerID string) bool {
	if actor == nil {
		return false
	}
	return actor.IsSuperAdmin() || actor.ID == ownerID
}

// Create stores a new post owned by the actor. The resulting status comes
// from computeStatus, so an author requesting publish lands in
// pending_approval rather than published.
func (l *Lifecycle) Create(actor *Identity, in PostInput, publish bool) (Post, error) {
	if actor == nil {
		return Post{}, ErrAccessDenied
	}
	if err := validateInput(in); err != nil {
		return Post{}, err
	}
	p := Post{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Content:   l.policy.Sanitize(in.Content),
		Category:  in.Category,
		Featured:  in.Featured,
		Image:     in.Image,
		Sources:   in.Sources,
		UserID:    actor.ID,
		Status:    computeStatus(publish, actor.Role),
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.InsertPost(p); err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// Update rewrites a post's editable fields and recomputes its status from
// the submitted publish intent and the actor's role. The recompute applies
// on every update: an author editing their own published post without
// re-requesting publish sends it back to draft.
func (l *Lifecycle) Update(actor *Identity, id string, in PostInput, publish bool) (Post, error) {
	if actor == nil {
		return Post{}, ErrAccessDenied
	}
	existing, err := l.store.GetPost(id)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("load post: %w", err)
	}
	if !canMutate(actor, existing.UserID) {
		return Post{}, ErrAccessDenied
	}
	if err := validateInput(in); err != nil {
		return Post{}, err
	}
	existing.Title = strings.TrimSpace(in.Title)
	existing.Content = l.policy.Sanitize(in.Content)
	existing.Category = in.Category
	existing.Featured = in.Featured
	existing.Image = in.Image
	existing.Sources = in.Sources
	existing.Status = computeStatus(publish, actor.Role)
	if err := l.store.UpdatePost(existing); err != nil {
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	return existing, nil
}

// SubmitForApproval moves the actor's own draft into the approval queue.
func (l *Lifecycle) SubmitForApproval(actor *Identity, id string) (Post, error) {
	if actor == nil {
		return Post{}, ErrAccessDenied
	}
	p, err := l.store.GetPost(id)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("load post: %w", err)
	}
	if p.UserID != actor.ID {
		return Post{}, ErrAccessDenied
	}
	if p.Status != StatusDraft {
		return Post{}, fmt.Errorf("%w: only drafts can be submitted for approval", ErrValidation)
	}
	p.Status = StatusPendingApproval
	if err := l.store.SetStatus(id, StatusPendingApproval); err != nil {
		return Post{}, fmt.Errorf("update status: %w", err)
	}
	return p, nil
}

// Approve publishes a pending post. Only super-admins may approve, and the
// role check runs before the post is even looked up, so an author probing
// arbitrary IDs learns nothing about which ones exist.
func (l *Lifecycle) Approve(actor *Identity, id string) (Post, error) {
	if !actor.IsSuperAdmin() {
		return Post{}, ErrAccessDenied
	}
	p, err := l.store.GetPost(id)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("load post: %w", err)
	}
	p.Status = StatusPublished
	if err := l.store.SetStatus(id, StatusPublished); err != nil {
		return Post{}, fmt.Errorf("update status: %w", err)
	}
	return p, nil
}

// Delete removes a post. Deletion is terminal from any state and is gated
// to the owner or a super-admin.
func (l *Lifecycle) Delete(actor *Identity, id string) error {
	if actor == nil {
		return ErrAccessDenied
	}
	p, err := l.store.GetPost(id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}
	if !canMutate(actor, p.UserID) {
		return ErrAccessDenied
	}
	if err := l.store.DeletePost(id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// CanView reports whether actor may view a post that is not yet published.
// Published posts are public; drafts and pending posts are visible to their
// owner and to super-admins (the preview page uses this).
func CanView(actor *Identity, p Post) bool {
	if p.Status == StatusPublished {
		return true
	}
	return canMutate(actor, p.UserID)
}
