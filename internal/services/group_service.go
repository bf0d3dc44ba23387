package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"splitledger/internal/core"
	"splitledger/internal/storage"
)

// GroupDetail is a group together with its members.
type GroupDetail struct {
	core.Group
	Members []core.MemberProfile
}

// GroupService manages groups and their membership. The creator of a group
// is its first admin; only admins add or remove members.
type GroupService struct {
	store GroupStore
	users UserStore
}

func NewGroupService(store GroupStore, users UserStore) *GroupService {
	return &GroupService{store: store, users: users}
}

func (s *GroupService) CreateGroup(ctx context.Context, caller core.UserID, name, description string) (core.Group, error) {
	g := core.Group{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedBy:   caller,
	}
	if err := g.Validate(); err != nil {
		return core.Group{}, invalid(err)
	}
	created, err := s.store.CreateGroup(ctx, g)
	if err != nil {
		return core.Group{}, storeErr("create group", err)
	}
	return created, nil
}

func (s *GroupService) ListGroups(ctx context.Context, caller core.UserID) ([]core.GroupMembership, error) {
	groups, err := s.store.ListGroupsForUser(ctx, caller)
	if err != nil {
		return nil, storeErr("list groups", err)
	}
	return groups, nil
}

// membership returns the caller's membership, or ErrNotMember.
func (s *GroupService) membership(ctx context.Context, groupID core.GroupID, caller core.UserID) (core.Member, error) {
	m, err := s.store.GetMember(ctx, groupID, caller)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Member{}, ErrNotMember
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *GroupService) requireAdmin(ctx context.Context, groupID core.GroupID, caller core.UserID) error {
	m, err := s.membership(ctx, groupID, caller)
	if err != nil {
		return err
	}
	if m.Role != core.RoleAdmin {
		return fmt.Errorf("only admins can manage members: %w", ErrForbidden)
	}
	return nil
}

func (s *GroupService) GetGroup(ctx context.Context, caller core.UserID, groupID core.GroupID) (GroupDetail, error) {
	if _, err := s.membership(ctx, groupID, caller); err != nil {
		return GroupDetail{}, err
	}
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return GroupDetail{}, storeErr("get group", err)
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return GroupDetail{}, storeErr("list members", err)
	}
	return GroupDetail{Group: g, Members: members}, nil
}

func (s *GroupService) ListMembers(ctx context.Context, caller core.UserID, groupID core.GroupID) ([]core.MemberProfile, error) {
	if _, err := s.membership(ctx, groupID, caller); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, storeErr("list members", err)
	}
	return members, nil
}

// AddMember enrolls userID as a plain member.
func (s *GroupService) AddMember(ctx context.Context, caller core.UserID, groupID core.GroupID, userID core.UserID) (core.Member, error) {
	if err := s.requireAdmin(ctx, groupID, caller); err != nil {
		return core.Member{}, err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return core.Member{}, storeErr("user to be added", err)
	}
	m, err := s.store.AddMember(ctx, groupID, userID, core.RoleMember)
	if errors.Is(err, storage.ErrConflict) {
		return core.Member{}, ErrAlreadyMember
	}
	if err != nil {
		return core.Member{}, storeErr("add member", err)
	}
	return m, nil
}

// RemoveMember drops userID from the group. Past expenses and settlements
// keep referring to the user.
func (s *GroupService) RemoveMember(ctx context.Context, caller core.UserID, groupID core.GroupID, userID core.UserID) error {
	if err := s.requireAdmin(ctx, groupID, caller); err != nil {
		return err
	}
	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		return storeErr("remove member", err)
	}
	return nil
}
