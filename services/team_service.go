package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
)

type TeamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
) *TeamService {
	return &TeamService{teamRepo: teamRepo, userRepo: userRepo}
}

// CreateTeam создаёт команду; создатель становится капитаном и первым
// участником. Пользователь, уже состоящий в команде, создать новую не может.
func (s *TeamService) CreateTeam(ctx context.Context, name string, creatorID int) (*models.Team, error) {
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if creator.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	team := &models.Team{Name: name, CaptainID: creatorID}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, err
	}
	if err := s.userRepo.UpdateTeam(ctx, creatorID, &team.ID); err != nil {
		return nil, fmt.Errorf("failed to attach creator to team: %w", err)
	}
	return team, nil
}

func (s *TeamService) JoinTeam(ctx context.Context, teamID, userID int) error {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.TeamID != nil {
		return ErrUserAlreadyInTeam
	}

	return s.userRepo.UpdateTeam(ctx, userID, &teamID)
}

func (s *TeamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	members, err := s.userRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	team.Members = make([]models.User, 0, len(members))
	for _, m := range members {
		m.PasswordHash = ""
		team.Members = append(team.Members, *m)
	}
	return team, nil
}

func (s *TeamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	return s.teamRepo.List(ctx)
}
