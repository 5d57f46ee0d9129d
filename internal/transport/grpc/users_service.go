package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	ggrpc "google.golang.org/grpc"

	"github.com/authnsvc/authentication-service/internal/authentication/domain"
	"github.com/authnsvc/authentication-service/internal/authentication/store"
)

// UsersServer is the admin facade over UserStore. Every method runs behind
// AuthInterceptor, so by the time a handler executes the caller is already
// known to hold the admin role.
type UsersServer interface {
	Create(ctx context.Context, email, name, password, role string) (store.User, error)
	Read(ctx context.Context, id string) (store.User, error)
	Update(ctx context.Context, u store.User) (store.User, error)
	Delete(ctx context.Context, id string) (int64, error)
	Index(ctx context.Context, limit, offset int64) ([]store.User, error)
}

type usersHandler struct {
	srv    UsersServer
	logger *logrus.Logger
}

func userToDTO(u store.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

func (h *usersHandler) create(ctx context.Context, dec func(any) error) (any, error) {
	var req CreateUserRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	u, err := h.srv.Create(ctx, req.Email, req.Name, req.Password, req.Role)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &UserResponse{User: userToDTO(u)}, nil
}

func (h *usersHandler) read(ctx context.Context, dec func(any) error) (any, error) {
	var req IDRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	u, err := h.srv.Read(ctx, req.ID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &UserResponse{User: userToDTO(u)}, nil
}

func (h *usersHandler) update(ctx context.Context, dec func(any) error) (any, error) {
	var req UpdateUserRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	existing, err := h.srv.Read(ctx, req.ID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	existing.Name = req.Name
	existing.Role = req.Role
	existing.IsActive = req.IsActive
	existing.IsVerified = req.IsVerified
	u, err := h.srv.Update(ctx, existing)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &UserResponse{User: userToDTO(u)}, nil
}

func (h *usersHandler) delete(ctx context.Context, dec func(any) error) (any, error) {
	var req IDRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	affected, err := h.srv.Delete(ctx, req.ID)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	return &DeleteResponse{RowsAffected: affected}, nil
}

func (h *usersHandler) index(ctx context.Context, dec func(any) error) (any, error) {
	var req IndexRequest
	if err := dec(&req); err != nil {
		return nil, err
	}
	limit, offset, warn, boundsErr := store.ValidateQueryBounds(req.Limit, req.Offset)
	if boundsErr != nil {
		return nil, statusFromDomainError(boundsErr)
	}
	if warn {
		h.logger.WithField("limit", req.Limit).Warn("users index requested an oversized page")
	}
	users, err := h.srv.Index(ctx, limit, offset)
	if err != nil {
		return nil, statusFromDomainError(err)
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, userToDTO(u))
	}
	return &UserIndexResponse{Users: dtos}, nil
}

// UsersServiceDesc is the admin facade's hand-written ServiceDesc.
var UsersServiceDesc = ggrpc.ServiceDesc{
	ServiceName: "authentication.UsersService",
	HandlerType: (*UsersServer)(nil),
	Methods: []ggrpc.MethodDesc{
		unaryMethod("Create", func(h any) dispatchFunc { return h.(*usersHandler).create }),
		unaryMethod("Read", func(h any) dispatchFunc { return h.(*usersHandler).read }),
		unaryMethod("Update", func(h any) dispatchFunc { return h.(*usersHandler).update }),
		unaryMethod("Delete", func(h any) dispatchFunc { return h.(*usersHandler).delete }),
		unaryMethod("Index", func(h any) dispatchFunc { return h.(*usersHandler).index }),
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "users.proto",
}

// RegisterUsersServer registers srv against UsersServiceDesc.
func RegisterUsersServer(s *ggrpc.Server, srv UsersServer, logger *logrus.Logger) {
	s.RegisterService(&UsersServiceDesc, &usersHandler{srv: srv, logger: logger})
}

// userAdminFacade adapts store.UserStore to UsersServer, hashing a fresh
// password the way the engine does at registration time.
type userAdminFacade struct {
	users store.UserStore
}

// NewUserAdminFacade builds the UsersServer the transport layer registers.
func NewUserAdminFacade(users store.UserStore) UsersServer {
	return &userAdminFacade{users: users}
}

func (f *userAdminFacade) Create(ctx context.Context, email, name, password, role string) (store.User, error) {
	addr, err := domain.ParseEmailAddress(email)
	if err != nil {
		return store.User{}, err
	}
	userName, err := domain.ParseUserName(name)
	if err != nil {
		return store.User{}, err
	}
	hash, err := domain.ParsePassword(domain.NewSecret(password))
	if err != nil {
		return store.User{}, err
	}
	userRole, err := domain.ParseUserRole(role)
	if err != nil {
		return store.User{}, err
	}
	return f.users.Insert(ctx, store.User{
		Email:        addr.String(),
		Name:         userName.String(),
		PasswordHash: hash.String(),
		Role:         userRole.String(),
		IsActive:     true,
		IsVerified:   false,
	})
}

func (f *userAdminFacade) Read(ctx context.Context, id string) (store.User, error) {
	return f.users.FindByID(ctx, id)
}

func (f *userAdminFacade) Update(ctx context.Context, u store.User) (store.User, error) {
	return f.users.Update(ctx, u)
}

func (f *userAdminFacade) Delete(ctx context.Context, id string) (int64, error) {
	return f.users.DeleteByID(ctx, id)
}

func (f *userAdminFacade) Index(ctx context.Context, limit, offset int64) ([]store.User, error) {
	return f.users.Index(ctx, limit, offset)
}
