package domain

import (
	"context"
	"time"
)

const (
	MaxTeamNameLength        = 64
	MaxTeamDescriptionLength = 1024
)

// Team is a hackathon team.
// swagger:model Team
type Team struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CreatorEmail string    `json:"creator_email"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewTeam returns a new Team. ID is set by the repository on create.
func NewTeam(name, creatorEmail, description string, createdAt time.Time) *Team {
	return &Team{
		Name:         name,
		CreatorEmail: creatorEmail,
		Description:  description,
		CreatedAt:    createdAt,
	}
}

// TeamMembership relates one email to one team.
type TeamMembership struct {
	TeamID      int64  `json:"team_id"`
	MemberEmail string `json:"member_email"`
}

// TeamMember is a member as shown to clients.
// swagger:model TeamMember
type TeamMember struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// TeamWithMembers bundles a team with its members in join order.
// swagger:model TeamWithMembers
type TeamWithMembers struct {
	*Team
	Members []*TeamMember `json:"members"`
}

// TeamPage is one page of the team listing.
type TeamPage struct {
	Teams []*TeamWithMembers `json:"teams"`
	Total int                `json:"total"`
}

// TeamRepository defines storage operations for teams.
type TeamRepository interface {
	// Create inserts the team and sets its ID. Returns ErrDuplicateTeamName on a name clash.
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id int64) (*Team, error)
	// List returns a page of teams ordered by lower(name), plus the total count.
	List(ctx context.Context, page PaginationParams) ([]*Team, int, error)
	ListAll(ctx context.Context) ([]*Team, error)
	CountByCreator(ctx context.Context, creatorEmail string) (int, error)
	UpdateDescription(ctx context.Context, id int64, description string) error
	Delete(ctx context.Context, id int64) error
}

// MembershipRepository is the membership oracle over the team_memberships relation.
type MembershipRepository interface {
	// Add is idempotent: added is false when the email already was a member.
	Add(ctx context.Context, teamID int64, email string) (added bool, err error)
	// Remove returns ErrNotFound when the email is not a member.
	Remove(ctx context.Context, teamID int64, email string) error
	IsMember(ctx context.Context, email string, teamID int64) (bool, error)
	TeamsOf(ctx context.Context, email string) ([]int64, error)
	ListByTeamIDs(ctx context.Context, teamIDs []int64) ([]*TeamMembership, error)
	ListAll(ctx context.Context) ([]*TeamMembership, error)
	// ListEmails returns every distinct member email.
	ListEmails(ctx context.Context) ([]string, error)
	DeleteByTeam(ctx context.Context, teamID int64) error
}

// TeamService defines the team glue around the voting core.
type TeamService interface {
	CreateTeam(ctx context.Context, user *User, name, description string) (*TeamWithMembers, error)
	JoinTeam(ctx context.Context, user *User, teamID int64) error
	LeaveTeam(ctx context.Context, user *User, teamID int64) error
	EditTeam(ctx context.Context, user *User, teamID int64, description string) (*Team, error)
	DeleteTeam(ctx context.Context, user *User, teamID int64) error
	ListTeams(ctx context.Context, page PaginationParams) (*TeamPage, error)
}
