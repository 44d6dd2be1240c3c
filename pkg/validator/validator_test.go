package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type addItemBody struct {
	ProductID int    `json:"product_id" validate:"required,gt=0"`
	Note      string `json:"note,omitempty" validate:"max=10"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(addItemBody{ProductID: 3}))
}

func TestValidate_MissingRequiredUsesJSONName(t *testing.T) {
	err := Validate(addItemBody{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["product_id"])
}

func TestValidate_NonPositive(t *testing.T) {
	err := Validate(addItemBody{ProductID: -2})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be greater than 0", valErr.Fields()["product_id"])
	assert.Contains(t, err.Error(), "field 'product_id'")
}

func TestValidate_MaxLength(t *testing.T) {
	err := Validate(addItemBody{ProductID: 1, Note: "far too long a note"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at most 10 characters", valErr.Fields()["note"])
}

func newBodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
}

func TestDecodeAndValidate_Success(t *testing.T) {
	var dst addItemBody
	require.NoError(t, DecodeAndValidate(newBodyRequest(`{"product_id":7}`), &dst))
	assert.Equal(t, 7, dst.ProductID)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	var dst addItemBody
	err := DecodeAndValidate(newBodyRequest(`{"product_id":`), &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDecodeAndValidate_WrongType(t *testing.T) {
	var dst addItemBody
	err := DecodeAndValidate(newBodyRequest(`{"product_id":"seven"}`), &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_UnknownField(t *testing.T) {
	var dst addItemBody
	err := DecodeAndValidate(newBodyRequest(`{"product_id":1,"qty":4}`), &dst)
	require.Error(t, err)
}

func TestDecodeAndValidate_TrailingData(t *testing.T) {
	var dst addItemBody
	err := DecodeAndValidate(newBodyRequest(`{"product_id":1}{"product_id":2}`), &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")
}

func TestDecodeAndValidate_ValidationFailure(t *testing.T) {
	var dst addItemBody
	err := DecodeAndValidate(newBodyRequest(`{"product_id":0}`), &dst)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
