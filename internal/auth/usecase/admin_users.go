package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/samber/lo"
)

type AdminUsersInput struct {
	Search   string
	Statuses []string
	Page     int32 `validate:"omitempty,min=1"`
	Size     int32 `validate:"omitempty,min=1,max=100"`
}

type AdminUserItem struct {
	ID        int64
	Username  string
	Email     string
	Phone     string
	Role      entity.Role
	Status    string
	CreatedAt time.Time
}

type AdminUsersOutput struct {
	Users []AdminUserItem
	Total int64
	Page  int32
	Size  int32
}

// AdminUsers lists accounts for operators, filtered by search text and
// status.
func (s *Usecase) AdminUsers(ctx context.Context, in AdminUsersInput) (*AdminUsersOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminUsers")
	defer span.End()

	if _, err := s.authenticatedAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Page < 1 {
		in.Page = 1
	}
	if in.Size < 1 {
		in.Size = 20
	}

	search := strings.TrimSpace(in.Search)
	statuses := entity.ParseSafeUserStatuses(in.Statuses)

	users, total, err := s.repoDB.GetUserList(ctx, entity.UserListFilter{
		IsFilterBySearch: search != "",
		IsFilterByStatus: len(statuses) > 0,
		Search:           search,
		Statuses:         entity.ToInt16Slice(statuses),
		Size:             in.Size,
		Page:             in.Page,
	})
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	items := lo.Map(users, func(u entity.User, _ int) AdminUserItem {
		return AdminUserItem{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Phone:     u.Phone,
			Role:      u.Role,
			Status:    u.Status.String(),
			CreatedAt: u.CreatedAt,
		}
	})

	return &AdminUsersOutput{
		Users: items,
		Total: total,
		Page:  in.Page,
		Size:  in.Size,
	}, nil
}
