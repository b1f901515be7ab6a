package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/eaglebank/account-registry/internal/command"
	"github.com/eaglebank/account-registry/internal/query"
	"github.com/eaglebank/account-registry/shared/cqrs"
	"github.com/eaglebank/account-registry/shared/middleware"
	"github.com/eaglebank/account-registry/shared/models"
)

const (
	msgCreated         = "Account created successfully"
	msgUpdated         = "Update successful"
	msgNoModifications = "Request processed successfully. No modifications made. " +
		"Null fields and empty values were ignored to preserve existing data."
	msgDeleted       = "Account deleted successfully"
	msgMalformedJSON = "Malformed JSON in request body"
	msgEmptyBody     = "Unable to parse JSON body"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*command.UpdateResult, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	SearchAll(context.Context, cqrs.SearchAllQuery) (*query.SearchResult, error)
	SearchByID(context.Context, cqrs.GetAccountQuery) (*query.SearchResult, error)
	SearchByEmail(context.Context, cqrs.SearchByEmailQuery) (*query.SearchResult, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

// AccountRequest is the body of register and update requests. Keys match
// case-insensitively; null and blank values count as not provided.
type AccountRequest struct {
	FirstName    models.OptionalString `json:"firstName"`
	LastName     models.OptionalString `json:"lastName"`
	EmailAddress models.OptionalString `json:"emailAddress"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts the account routes on r.
func (h *AccountHandler) RegisterRoutes(r gin.IRouter) {
	account := r.Group("/account")
	account.GET("/search/all", h.SearchAll)
	account.GET("/search/id/:id", h.SearchByID)
	account.GET("/search/email/:email", h.SearchByEmail)
	account.POST("/register", h.CreateAccount)
	account.PATCH("/update/id/:id", h.UpdateAccount)
	account.DELETE("/delete/id/:id", h.DeleteAccount)
}

func (h *AccountHandler) SearchAll(c *gin.Context) {
	result, err := h.queries.SearchAll(c.Request.Context(), cqrs.SearchAllQuery{})
	h.respondSearch(c, result, err)
}

func (h *AccountHandler) SearchByID(c *gin.Context) {
	result, err := h.queries.SearchByID(c.Request.Context(), cqrs.GetAccountQuery{ID: c.Param("id")})
	h.respondSearch(c, result, err)
}

func (h *AccountHandler) SearchByEmail(c *gin.Context) {
	result, err := h.queries.SearchByEmail(c.Request.Context(), cqrs.SearchByEmailQuery{Fragment: c.Param("email")})
	h.respondSearch(c, result, err)
}

func (h *AccountHandler) respondSearch(c *gin.Context, result *query.SearchResult, err error) {
	if err != nil {
		middleware.RespondWithFailure(c, err)
		return
	}
	middleware.RespondWithSuccess(c, http.StatusOK, result.Message(), result.Accounts)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	req, ok := bindAccountRequest(c)
	if !ok {
		return
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		FirstName:    req.FirstName.Value(),
		LastName:     req.LastName.Value(),
		EmailAddress: req.EmailAddress.Value(),
	})
	if err != nil {
		middleware.RespondWithFailure(c, err)
		return
	}

	c.Header("Location", "/account/search/id/"+strconv.FormatInt(account.ID, 10))
	middleware.RespondWithSuccess(c, http.StatusCreated, msgCreated, account.ToView())
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	req, ok := bindAccountRequest(c)
	if !ok {
		return
	}

	result, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		ID:           c.Param("id"),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		middleware.RespondWithFailure(c, err)
		return
	}

	if result.Changes.Empty() {
		middleware.RespondWithSuccess(c, http.StatusOK, msgNoModifications, nil)
		return
	}
	middleware.RespondWithChanges(c, msgUpdated, result.Changes)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	if err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{ID: c.Param("id")}); err != nil {
		middleware.RespondWithFailure(c, err)
		return
	}
	middleware.RespondWithSuccess(c, http.StatusOK, msgDeleted, nil)
}

// bindAccountRequest decodes the body, answering 422 for an empty body and
// 400 for anything that is not a JSON object of string-like fields.
func bindAccountRequest(c *gin.Context) (*AccountRequest, bool) {
	var req AccountRequest
	if c.Request.Body == nil {
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, msgEmptyBody)
		return nil, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			middleware.RespondWithError(c, http.StatusUnprocessableEntity, msgEmptyBody)
			return nil, false
		}
		middleware.RespondWithError(c, http.StatusBadRequest, msgMalformedJSON)
		return nil, false
	}
	return &req, true
}
