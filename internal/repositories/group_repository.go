package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, ownerID int, name string, memberIDs []int) (models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error)
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	ListMembers(ctx context.Context, groupID int) ([]models.GroupMember, error)
	MemberIDs(ctx context.Context, groupID int) ([]int, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group, the creator-as-admin row, and the member
// rows in one transaction. Duplicate member ids and the creator's own id
// in memberIDs are skipped silently.
func (r *GroupRepo) CreateGroup(ctx context.Context, ownerID int, name string, memberIDs []int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.QueryRowxContext(ctx, `INSERT INTO groups (name, owner_id) VALUES ($1, $2) RETURNING id, name, owner_id, created_at`, name, ownerID).
		Scan(&group.ID, &group.Name, &group.OwnerID, &group.CreatedAt); err != nil {
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`, group.ID, ownerID, models.RoleAdmin); err != nil {
		return models.Group{}, err
	}

	memberSet := map[int]struct{}{}
	for _, id := range memberIDs {
		if id == ownerID {
			continue
		}
		memberSet[id] = struct{}{}
	}
	ids := make([]int, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`, group.ID, id, models.RoleMember); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// ListGroupsForUser returns one summary per group the user belongs to,
// carrying the latest message and the user's unread receipt count.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	query := `SELECT g.id AS group_id, g.name,
            lm.content AS last_message,
            lm.created_at AS last_message_at,
            (SELECT COUNT(*) FROM group_message_receipts gr
                INNER JOIN group_messages m ON m.id = gr.message_id
                WHERE m.group_id = g.id AND gr.user_id=$1 AND gr.is_read=FALSE) AS unread_count
        FROM groups g
        INNER JOIN group_members gm ON gm.group_id = g.id
        LEFT JOIN LATERAL (
            SELECT content, created_at FROM group_messages m
            WHERE m.group_id = g.id
            ORDER BY m.created_at DESC, m.id DESC
            LIMIT 1
        ) lm ON TRUE
        WHERE gm.user_id=$1
        ORDER BY lm.created_at DESC NULLS LAST, g.created_at DESC`
	var summaries []models.GroupSummary
	err := r.db.SelectContext(ctx, &summaries, query, userID)
	return summaries, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT id, name, owner_id, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListMembers returns all members with role and display name.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID int) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.SelectContext(ctx, &members, `SELECT gm.group_id, gm.user_id, gm.role, COALESCE(u.username, '') AS username
        FROM group_members gm
        LEFT JOIN users u ON u.id = gm.user_id
        WHERE gm.group_id=$1
        ORDER BY gm.user_id ASC`, groupID)
	return members, err
}

// MemberIDs returns just the member ids of a group.
func (r *GroupRepo) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM group_members WHERE group_id=$1 ORDER BY user_id ASC`, groupID)
	return ids, err
}
