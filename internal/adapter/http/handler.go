package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

const dateFormat = "2006-01-02"

// ActorParams carries the caller identity on every request. Authentication
// is handled upstream; these headers are the trusted result of it.
type ActorParams struct {
	ActorID   string `header:"X-Actor-Id" doc:"Authenticated caller ID"`
	ActorRole string `header:"X-Actor-Role" doc:"Caller role" enum:"admin,manager,tenant"`
}

func (p ActorParams) actor() domain.Actor {
	return domain.Actor{ID: p.ActorID, Role: domain.Role(p.ActorRole)}
}

// ContractResponse is the API representation of a contract.
type ContractResponse struct {
	ID                 string  `json:"id" doc:"Unique identifier"`
	RoomID             string  `json:"room_id" doc:"Room the contract binds"`
	TenantID           string  `json:"tenant_id" doc:"Tenant party"`
	StartDate          string  `json:"start_date" doc:"Occupancy start (YYYY-MM-DD)"`
	DurationMonths     int     `json:"duration_months" doc:"Contract length in months"`
	EndDate            string  `json:"end_date" doc:"Derived occupancy end (YYYY-MM-DD)"`
	RentAmount         int64   `json:"rent_amount" doc:"Rent per payment cycle, minor units"`
	DepositAmount      int64   `json:"deposit_amount" doc:"Deposit, minor units"`
	PenaltyRate        float64 `json:"penalty_rate" doc:"Late-payment penalty rate"`
	PaymentCycleMonths int     `json:"payment_cycle_months" doc:"Months per billing cycle"`
	Status             string  `json:"status" doc:"Lifecycle state"`
	Note               string  `json:"note,omitempty" doc:"Append-only audit trail"`
	AttachmentKey      string  `json:"attachment_key,omitempty" doc:"Stored contract document reference"`
	EvidenceKey        string  `json:"evidence_key,omitempty" doc:"Force-termination evidence reference"`
	DeletedAt          string  `json:"deleted_at,omitempty" doc:"Soft-delete timestamp (ISO 8601)"`
	CreatedAt          string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt          string  `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toContractResponse(c domain.Contract) ContractResponse {
	resp := ContractResponse{
		ID:                 c.ID,
		RoomID:             c.RoomID,
		TenantID:           c.TenantID,
		StartDate:          c.StartDate.Format(dateFormat),
		DurationMonths:     c.DurationMonths,
		EndDate:            c.EndDate.Format(dateFormat),
		RentAmount:         c.RentAmount,
		DepositAmount:      c.DepositAmount,
		PenaltyRate:        c.PenaltyRate,
		PaymentCycleMonths: c.PaymentCycleMonths,
		Status:             string(c.Status),
		Note:               c.Note,
		AttachmentKey:      c.AttachmentKey,
		EvidenceKey:        c.EvidenceKey,
		CreatedAt:          c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:          c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if c.DeletedAt != nil {
		resp.DeletedAt = c.DeletedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// RoomResponse is the API representation of a room.
type RoomResponse struct {
	ID                string `json:"id" doc:"Unique identifier"`
	Name              string `json:"name" doc:"Display name"`
	Status            string `json:"status" doc:"Occupancy state"`
	CurrentContractID string `json:"current_contract_id,omitempty" doc:"Contract currently holding the room"`
	MaxTenants        int    `json:"max_tenants" doc:"Tenant capacity"`
	CreatedAt         string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt         string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toRoomResponse(r domain.Room) RoomResponse {
	resp := RoomResponse{
		ID:         r.ID,
		Name:       r.Name,
		Status:     string(r.Status),
		MaxTenants: r.MaxTenants,
		CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  r.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if r.CurrentContractID != nil {
		resp.CurrentContractID = *r.CurrentContractID
	}
	return resp
}

// TermsBody carries the caller-supplied contract parameters. The end date is
// never accepted from the wire; it is always derived server-side.
type TermsBody struct {
	RoomID             string  `json:"room_id" minLength:"1" doc:"Room to bind"`
	TenantID           string  `json:"tenant_id" minLength:"1" doc:"Tenant party"`
	StartDate          string  `json:"start_date" format:"date" doc:"Occupancy start (YYYY-MM-DD)"`
	DurationMonths     int     `json:"duration_months" minimum:"1" doc:"Contract length in months"`
	RentAmount         int64   `json:"rent_amount" doc:"Rent per payment cycle, minor units"`
	DepositAmount      int64   `json:"deposit_amount" doc:"Deposit, minor units"`
	PenaltyRate        float64 `json:"penalty_rate,omitempty" doc:"Late-payment penalty rate"`
	PaymentCycleMonths int     `json:"payment_cycle_months" minimum:"1" doc:"Months per billing cycle"`
	AttachmentKey      string  `json:"attachment_key,omitempty" doc:"Stored contract document reference"`
}

func (b TermsBody) toTerms() (domain.ContractTerms, error) {
	start, err := time.Parse(dateFormat, b.StartDate)
	if err != nil {
		return domain.ContractTerms{}, &domain.ValidationError{Field: "start_date", Reason: "must be a YYYY-MM-DD date"}
	}
	return domain.ContractTerms{
		RoomID:             b.RoomID,
		TenantID:           b.TenantID,
		StartDate:          start,
		DurationMonths:     b.DurationMonths,
		RentAmount:         b.RentAmount,
		DepositAmount:      b.DepositAmount,
		PenaltyRate:        b.PenaltyRate,
		PaymentCycleMonths: b.PaymentCycleMonths,
		AttachmentKey:      b.AttachmentKey,
	}, nil
}

// --- Create Contract ---

type CreateContractInput struct {
	ActorParams
	Body TermsBody
}

type ContractOutput struct {
	Body ContractResponse
}

// --- Get Contract ---

type GetContractInput struct {
	ActorParams
	ID string `path:"id" doc:"Contract ID"`
}

// --- List Contracts ---

type ListContractsInput struct {
	ActorParams
	Status         string `query:"status" required:"false" doc:"Filter by lifecycle state"`
	RoomID         string `query:"room_id" required:"false" doc:"Filter by room"`
	TenantID       string `query:"tenant_id" required:"false" doc:"Filter by tenant"`
	IncludeDeleted bool   `query:"include_deleted" required:"false" doc:"Include soft-deleted contracts (staff only)"`
	Limit          int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset         int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListContractsOutput struct {
	Body []ContractResponse
}

// --- Approval ---

type ApprovalInput struct {
	ActorParams
	ID   string `path:"id" doc:"Contract ID"`
	Body struct {
		Action string `json:"action" doc:"Landlord decision" enum:"accept,reject"`
		Reason string `json:"reason,omitempty" doc:"Required when rejecting"`
	}
}

// --- Update Contract ---

type UpdateContractInput struct {
	ActorParams
	ID   string `path:"id" doc:"Contract ID"`
	Body TermsBody
}

// --- Termination ---

type TerminationRequestInput struct {
	ActorParams
	ID   string `path:"id" doc:"Contract ID"`
	Body struct {
		Reason string `json:"reason" minLength:"1" doc:"Why the landlord wants out"`
	}
}

type TerminationDecisionInput struct {
	ActorParams
	ID   string `path:"id" doc:"Contract ID"`
	Body struct {
		Action string `json:"action" doc:"Tenant decision" enum:"approve,reject"`
	}
}

type ForceTerminationInput struct {
	ActorParams
	ID   string `path:"id" doc:"Contract ID"`
	Body struct {
		Reason      string `json:"reason" minLength:"1" doc:"Why the wait is being overridden"`
		EvidenceKey string `json:"evidence_key" minLength:"1" doc:"Stored evidence reference"`
	}
}

// --- Resolution / restore / delete ---

type ContractIDInput struct {
	ActorParams
	ID string `path:"id" doc:"Contract ID"`
}

// --- Sweep ---

type SweepInput struct {
	ActorParams
}

type SweepOutput struct {
	Body struct {
		Transitioned int `json:"transitioned" doc:"Contracts moved by this sweep"`
	}
}

// --- Rooms ---

type CreateRoomInput struct {
	ActorParams
	Body struct {
		ID         string `json:"id,omitempty" doc:"Optional caller-chosen ID"`
		Name       string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		MaxTenants int    `json:"max_tenants" minimum:"1" doc:"Tenant capacity"`
	}
}

type RoomOutput struct {
	Body RoomResponse
}

type GetRoomInput struct {
	ID string `path:"id" doc:"Room ID"`
}

// Register adds all contract lifecycle routes to the Huma API.
func Register(api huma.API, engine *app.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "create-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts",
		Summary:     "Create a contract in the pending state",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *CreateContractInput) (*ContractOutput, error) {
		terms, err := input.Body.toTerms()
		if err != nil {
			return nil, toHumaError(err)
		}
		c, err := engine.Create(ctx, input.actor(), terms)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-contract",
		Method:      http.MethodGet,
		Path:        "/api/v1/contracts/{id}",
		Summary:     "Get a contract by ID",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *GetContractInput) (*ContractOutput, error) {
		c, err := engine.GetByID(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-contracts",
		Method:      http.MethodGet,
		Path:        "/api/v1/contracts",
		Summary:     "List contracts",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ListContractsInput) (*ListContractsOutput, error) {
		filter := domain.ContractFilter{
			RoomID:         input.RoomID,
			TenantID:       input.TenantID,
			IncludeDeleted: input.IncludeDeleted,
			Limit:          input.Limit,
			Offset:         input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		contracts, err := engine.List(ctx, input.actor(), filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ContractResponse, len(contracts))
		for i, c := range contracts {
			resp[i] = toContractResponse(c)
		}
		return &ListContractsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/approval",
		Summary:     "Accept or reject a pending contract",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ApprovalInput) (*ContractOutput, error) {
		c, err := engine.Approve(ctx, input.actor(), input.ID, app.ApprovalAction(input.Body.Action), input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-contract",
		Method:      http.MethodPut,
		Path:        "/api/v1/contracts/{id}",
		Summary:     "Replace the terms of a pending or rejected contract",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *UpdateContractInput) (*ContractOutput, error) {
		terms, err := input.Body.toTerms()
		if err != nil {
			return nil, toHumaError(err)
		}
		c, err := engine.Update(ctx, input.actor(), input.ID, terms)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-termination",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/termination-request",
		Summary:     "Ask the tenant to end an active contract early",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *TerminationRequestInput) (*ContractOutput, error) {
		c, err := engine.RequestTermination(ctx, input.actor(), input.ID, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "decide-termination",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/termination-decision",
		Summary:     "Record the tenant's answer to a termination request",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *TerminationDecisionInput) (*ContractOutput, error) {
		c, err := engine.HandleTerminationRequest(ctx, input.actor(), input.ID, app.TerminationAction(input.Body.Action))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "force-terminate-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/force-termination",
		Summary:     "End a contract without waiting for the tenant's answer",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ForceTerminationInput) (*ContractOutput, error) {
		c, err := engine.ForceTerminate(ctx, input.actor(), input.ID, input.Body.Reason, input.Body.EvidenceKey)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/resolution",
		Summary:     "Re-run the clearance gate on a contract awaiting payment",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ContractIDInput) (*ContractOutput, error) {
		c, err := engine.ResolvePendingTransaction(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/restore",
		Summary:     "Undo a soft delete",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ContractIDInput) (*ContractOutput, error) {
		c, err := engine.Restore(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-contract",
		Method:      http.MethodDelete,
		Path:        "/api/v1/contracts/{id}",
		Summary:     "Soft-delete a contract",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ContractIDInput) (*ContractOutput, error) {
		c, err := engine.Delete(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "purge-contract",
		Method:        http.MethodDelete,
		Path:          "/api/v1/contracts/{id}/permanent",
		Summary:       "Permanently delete a contract",
		Tags:          []string{"Contracts"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ContractIDInput) (*struct{}, error) {
		if err := engine.HardDelete(ctx, input.actor(), input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sweep-contracts",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/sweep",
		Summary:     "Run the expiry sweep now",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *SweepInput) (*SweepOutput, error) {
		if !input.actor().Staff() {
			return nil, toHumaError(domain.ErrPermissionDenied)
		}
		count, err := engine.SweepExpired(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &SweepOutput{}
		out.Body.Transitioned = count
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-room",
		Method:      http.MethodPost,
		Path:        "/api/v1/rooms",
		Summary:     "Create a room",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *CreateRoomInput) (*RoomOutput, error) {
		room, err := engine.CreateRoom(ctx, input.actor(), input.Body.ID, input.Body.Name, input.Body.MaxTenants)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-room",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Get a room by ID",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *GetRoomInput) (*RoomOutput, error) {
		room, err := engine.GetRoom(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrContractNotFound) {
		return huma.Error404NotFound("contract not found")
	}
	if errors.Is(err, domain.ErrRoomNotFound) {
		return huma.Error404NotFound("room not found")
	}
	if errors.Is(err, domain.ErrPermissionDenied) {
		return huma.Error403Forbidden("permission denied")
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var capErr *domain.CapacityError
	if errors.As(err, &capErr) {
		return huma.Error409Conflict(capErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
