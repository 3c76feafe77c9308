package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

const (
	ToolCreateUser = "create_user"
	ToolGetUsers   = "get_users"
	ToolUpdateUser = "update_user"
	ToolDeleteUser = "delete_user"
)

// ToolFor maps an intent onto the tool that serves it.
func ToolFor(intent model.Intent) string {
	switch intent {
	case model.IntentCreate:
		return ToolCreateUser
	case model.IntentUpdate:
		return ToolUpdateUser
	case model.IntentDelete:
		return ToolDeleteUser
	default:
		return ToolGetUsers
	}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ===================================
// Tool I/O
// ===================================

type CreateUserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   any    `json:"age,omitempty"`
	Role  string `json:"role,omitempty"`
}

type GetUsersInput struct {
	Filters map[string]any `json:"filters,omitempty"`
}

type UpdateUserInput struct {
	Email string         `json:"email"`
	Data  map[string]any `json:"data"`
}

type DeleteUserInput struct {
	Email string `json:"email"`
}

// OperationOutput is the result every user tool returns.
type OperationOutput struct {
	Outcome model.Outcome `json:"outcome"`
	Message string        `json:"message"`
	// Reason names the violated precondition for rejected operations.
	Reason string `json:"reason,omitempty"`
}

func success(msg string) *OperationOutput {
	return &OperationOutput{Outcome: model.OutcomeSuccess, Message: msg}
}

func rejected(reason error, msg string) *OperationOutput {
	return &OperationOutput{Outcome: model.OutcomeRejected, Message: msg, Reason: reason.Error()}
}

func failed(err error, msg string) *OperationOutput {
	out := &OperationOutput{Outcome: model.OutcomeFailed, Message: msg}
	if err != nil {
		out.Reason = err.Error()
	}
	return out
}

// ===================================
// User Operations
// ===================================

// UserOperations implements the four user tools over a repository. Every
// mutation checks existence first and never touches the store when the
// precondition fails.
type UserOperations struct {
	repo model.UserRepository
}

func NewUserOperations(repo model.UserRepository) *UserOperations {
	return &UserOperations{repo: repo}
}

func (o *UserOperations) Create(ctx context.Context, in *CreateUserInput) (*OperationOutput, error) {
	email := strings.TrimSpace(in.Email)
	if !ValidEmail(email) {
		return rejected(errx.ErrInvalidEmail, fmt.Sprintf("Invalid email format: %s", email)), nil
	}
	if strings.TrimSpace(in.Name) == "" {
		return rejected(errx.ErrMissingFields, "Missing required field: name"), nil
	}

	fields := map[string]any{"name": strings.TrimSpace(in.Name), "email": email}
	if in.Age != nil {
		fields["age"] = in.Age
	}
	if role := strings.TrimSpace(in.Role); role != "" {
		fields["role"] = role
	}
	user := model.UserFromFields(fields)

	existing, err := o.repo.GetUsers(ctx, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return rejected(errx.ErrUserExists, fmt.Sprintf("User with email %s already exists.", email)), nil
	}

	if _, err := o.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, errx.ErrUserExists) {
			return rejected(errx.ErrUserExists, fmt.Sprintf("User with email %s already exists.", email)), nil
		}
		logx.Warn().Err(err).Str("component", "user_tools").Str("email", email).Msg("create failed")
		return failed(err, "Failed to create user"), nil
	}

	doc, err := json.Marshal(user)
	if err != nil {
		return success("User created successfully."), nil
	}
	return success(fmt.Sprintf("User created successfully: %s", doc)), nil
}

func (o *UserOperations) Get(ctx context.Context, in *GetUsersInput) (*OperationOutput, error) {
	users, err := o.repo.GetUsers(ctx, in.Filters)
	if err != nil {
		logx.Warn().Err(err).Str("component", "user_tools").Msg("read failed")
		return failed(err, "Failed to read users"), nil
	}
	if len(users) == 0 {
		return success("No users found"), nil
	}
	doc, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return success(fmt.Sprintf("Found %d users, but couldn't display them.", len(users))), nil
	}
	return success(fmt.Sprintf("Found %d users: %s", len(users), doc)), nil
}

func (o *UserOperations) Update(ctx context.Context, in *UpdateUserInput) (*OperationOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || len(in.Data) == 0 {
		return rejected(errx.ErrMissingFields, "Update needs an email and at least one field to change"), nil
	}

	existing, err := o.repo.GetUsers(ctx, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return rejected(errx.ErrUserNotFound, fmt.Sprintf("User with email %s not found.", email)), nil
	}

	ok, err := o.repo.UpdateUser(ctx, email, in.Data)
	if err != nil || !ok {
		if err != nil {
			logx.Warn().Err(err).Str("component", "user_tools").Str("email", email).Msg("update failed")
		}
		return failed(err, fmt.Sprintf("Failed to update user %s", email)), nil
	}

	doc, err := json.Marshal(in.Data)
	if err != nil {
		return success(fmt.Sprintf("User %s updated successfully.", email)), nil
	}
	return success(fmt.Sprintf("User %s updated successfully with: %s", email, doc)), nil
}

func (o *UserOperations) Delete(ctx context.Context, in *DeleteUserInput) (*OperationOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return rejected(errx.ErrMissingFields, "Delete needs an email"), nil
	}

	existing, err := o.repo.GetUsers(ctx, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return rejected(errx.ErrUserNotFound, fmt.Sprintf("User with email %s not found.", email)), nil
	}

	ok, err := o.repo.DeleteUser(ctx, email)
	if err != nil || !ok {
		if err != nil {
			logx.Warn().Err(err).Str("component", "user_tools").Str("email", email).Msg("delete failed")
		}
		return failed(err, fmt.Sprintf("Failed to delete user %s", email)), nil
	}
	return success(fmt.Sprintf("User %s deleted successfully", email)), nil
}

// Tools exposes the operations as Eino tools.
func (o *UserOperations) Tools() []tool.BaseTool {
	return []tool.BaseTool{
		utils.NewTool(
			&schema.ToolInfo{
				Name: ToolCreateUser,
				Desc: "Create a new user record. Fails when a user with the same email already exists.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"name":  {Type: schema.String, Desc: "User's full name", Required: true},
					"email": {Type: schema.String, Desc: "User's email address", Required: true},
					"age":   {Type: schema.Integer, Desc: "User's age"},
					"role":  {Type: schema.String, Desc: "User's role"},
				}),
			},
			o.Create,
		),
		utils.NewTool(
			&schema.ToolInfo{
				Name: ToolGetUsers,
				Desc: "List user records whose fields equal every filter entry. No filters lists all users.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"filters": {Type: schema.Object, Desc: "Optional field equality filters"},
				}),
			},
			o.Get,
		),
		utils.NewTool(
			&schema.ToolInfo{
				Name: ToolUpdateUser,
				Desc: "Update fields of the user identified by email. Fails when no such user exists.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"email": {Type: schema.String, Desc: "Email of the user to update", Required: true},
					"data":  {Type: schema.Object, Desc: "Fields to update", Required: true},
				}),
			},
			o.Update,
		),
		utils.NewTool(
			&schema.ToolInfo{
				Name: ToolDeleteUser,
				Desc: "Delete the user identified by email. Fails when no such user exists.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"email": {Type: schema.String, Desc: "Email of the user to delete", Required: true},
				}),
			},
			o.Delete,
		),
	}
}
