package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"go.uber.org/zap"
)

// ClientService handles client registration and lookup
type ClientService struct {
	clientRepo repository.ClientRepository
	logger     *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{clientRepo: clientRepo, logger: logger}
}

// CreateClientInput represents the create client input
type CreateClientInput struct {
	Name    string
	Phone   *string
	Email   *string
	Address *string
}

// CreateClient registers a client with a zero overpayment balance
func (s *ClientService) CreateClient(ctx context.Context, input *CreateClientInput) (*entity.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewInvalidArgumentError("name is required")
	}

	client := &entity.Client{
		Name:     name,
		Phone:    input.Phone,
		Email:    input.Email,
		Address:  input.Address,
		IsActive: true,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, apperror.NewInternalError(err)
	}

	s.logger.Info("client created", zap.Stringer("client_id", client.ID))
	return client, nil
}

// GetClient retrieves a client by ID
func (s *ClientService) GetClient(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if client == nil {
		return nil, apperror.NewNotFoundError("Client")
	}
	return client, nil
}
