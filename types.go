package inkwell

import "time"

// Role determines what a signed-in user may do. Authors manage their own
// posts; super-admins manage and approve everyone's.
type Role string

const (
	RoleAuthor     Role = "author"
	RoleSuperAdmin Role = "super-admin"
)

// Status is the lifecycle stage of a post.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusPublished       Status = "published"
)

// Identity is the authenticated principal decoded from the session cookie.
// Handlers resolve it once per request and pass it explicitly into the
// lifecycle controller; a nil *Identity means "unauthenticated".
type Identity struct {
	ID       string
	Username string
	Role     Role
}

// IsSuperAdmin reports whether the identity carries the super-admin role.
// Safe to call on a nil receiver.
func (id *Identity) IsSuperAdmin() bool {
	return id != nil && id.Role == RoleSuperAdmin
}

// User is an author or super-admin account stored in the users table.
type User struct {
	ID           string
	Username     string
	Role         Role
	PasswordHash string
	Bio          string
	AvatarURL    string
	CreatedAt    time.Time
}

// Post is the core content type. Content holds sanitized HTML produced by
// the rich-text editor; Sources is a list of reference URLs.
type Post struct {
	ID        string
	Title     string
	Content   string
	Category  string
	Featured  bool
	Image     string
	Sources   []string
	UserID    string
	Status    Status
	CreatedAt time.Time
}

// Link returns the public URL path of the post.
func (p Post) Link() string {
	return "/posts/" + p.ID
}

// Image is metadata for an uploaded image, keyed by filename under the
// owner's upload directory.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UserID       string
	UploadedAt   time.Time
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	Email     string
	CreatedAt time.Time
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
