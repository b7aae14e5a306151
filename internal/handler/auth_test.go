package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voltswap/battery-swap-api/internal/model"
)

func validRegisterReq() registerReq {
	return registerReq{
		Username:        "ada",
		Email:           "ada@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		FullName:        "Ada Lovelace",
		AccountType:     model.AccountIndividual,
	}
}

func TestValidateRegister(t *testing.T) {
	t.Run("accepts a valid individual", func(t *testing.T) {
		req := validRegisterReq()
		assert.Empty(t, validateRegister(&req))
	})

	t.Run("accepts a valid company with cnpj", func(t *testing.T) {
		req := validRegisterReq()
		req.AccountType = model.AccountCompany
		req.Cnpj = "12.345.678/0001-90"
		assert.Empty(t, validateRegister(&req))
	})

	t.Run("company without cnpj is rejected", func(t *testing.T) {
		req := validRegisterReq()
		req.AccountType = model.AccountCompany
		errs := validateRegister(&req)
		assert.Contains(t, errs, "Cnpj")
	})

	t.Run("individual never needs a cnpj", func(t *testing.T) {
		req := validRegisterReq()
		req.Cnpj = ""
		assert.Empty(t, validateRegister(&req))
	})

	t.Run("password confirmation must match", func(t *testing.T) {
		req := validRegisterReq()
		req.ConfirmPassword = "different"
		errs := validateRegister(&req)
		assert.Contains(t, errs, "confirm_password")
	})

	t.Run("short password", func(t *testing.T) {
		req := validRegisterReq()
		req.Password, req.ConfirmPassword = "abc", "abc"
		errs := validateRegister(&req)
		assert.Contains(t, errs, "password")
	})

	t.Run("unknown account type", func(t *testing.T) {
		req := validRegisterReq()
		req.AccountType = "ADMIN"
		errs := validateRegister(&req)
		assert.Contains(t, errs, "account_type")
	})

	t.Run("email needs an at sign", func(t *testing.T) {
		req := validRegisterReq()
		req.Email = "not-an-email"
		errs := validateRegister(&req)
		assert.Contains(t, errs, "email")
	})

	t.Run("missing required fields", func(t *testing.T) {
		errs := validateRegister(&registerReq{AccountType: model.AccountIndividual})
		assert.Contains(t, errs, "username")
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "password")
		assert.Contains(t, errs, "full_name")
	})
}
