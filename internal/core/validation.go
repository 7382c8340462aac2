package core

// validation.go turns candidate rows into typed rows.
//
// Rules are checked in a fixed order and the first failing rule wins, so each
// rejected line carries exactly one message. Messages are line-numbered
// sentences meant for people; only the category is machine-readable.

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MinFields is the smallest number of fields a data line can have.
const MinFields = 3

// ValidateProduct checks a product candidate. On success it returns the typed
// row and a nil error.
//
// Failed rows whose clean code holds characters needing manual review are
// tagged CategoryInvalidCode instead of CategoryValidation.
func ValidateProduct(c ProductCandidate) (Product, *ImportError) {
	if verr := checkProduct(c); verr != nil {
		ie := verr.ImportError()
		if HasInvalidCodeChars(c.CleanCode) {
			ie.Category = CategoryInvalidCode
			ie.Code = c.CleanCode
			ie.Original = c.Product
		}
		return Product{}, &ie
	}

	price, _ := ParsePrice(c.Price)
	stock, _ := ParseStock(c.Stock)

	return Product{
		Line:        c.Line,
		Name:        c.Product,
		Stock:       int32(stock),
		Price:       price.Round(2),
		Application: c.Application,
	}, nil
}

func checkProduct(c ProductCandidate) *ValidationError {
	fail := func(field, value, format string, args ...any) *ValidationError {
		return &ValidationError{Line: c.Line, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
	}

	if c.Fields < MinFields {
		return fail("", c.Raw, "expected at least %d fields (product;stock;price), found %d in %q", MinFields, c.Fields, c.Raw)
	}

	if c.Product == "" {
		return fail("product", c.Product, "product name is required")
	}
	if utf8.RuneCountInString(c.Product) > MaxProductNameLength {
		return fail("product", c.Product, "product name cannot exceed %d characters", MaxProductNameLength)
	}

	price, ok := ParsePrice(c.Price)
	if !ok {
		return fail("price", c.Price, "price must be a valid number (%q)", c.Price)
	}
	if price.IsNegative() {
		return fail("price", c.Price, "price cannot be negative (%q)", c.Price)
	}
	if price.GreaterThan(MaxPrice) {
		return fail("price", c.Price, "price cannot exceed %s (%q)", MaxPrice.StringFixed(2), c.Price)
	}

	stock, ok := ParseStock(c.Stock)
	if !ok {
		return fail("stock", c.Stock, "stock must be a whole number (%q)", c.Stock)
	}
	if stock < 0 {
		return fail("stock", c.Stock, "stock cannot be negative (%q)", c.Stock)
	}
	if stock > MaxStock {
		return fail("stock", c.Stock, "stock cannot exceed %d (%q)", MaxStock, c.Stock)
	}

	if utf8.RuneCountInString(c.Application) > MaxApplicationLength {
		return fail("application", "", "application cannot exceed %d characters", MaxApplicationLength)
	}

	return nil
}

// ValidateClient checks a client candidate. On success it returns the typed
// row with code, name and city upper-cased and the CNPJ reduced to digits.
func ValidateClient(c ClientCandidate) (Client, *ImportError) {
	userID, verr := checkClient(c)
	if verr != nil {
		ie := verr.ImportError()
		return Client{}, &ie
	}

	return Client{
		Line:   c.Line,
		Code:   strings.ToUpper(strings.TrimSpace(c.Code)),
		Name:   strings.ToUpper(strings.TrimSpace(c.Client)),
		City:   strings.ToUpper(strings.TrimSpace(c.City)),
		CNPJ:   OnlyDigits(c.CNPJ),
		UserID: userID,
	}, nil
}

func checkClient(c ClientCandidate) (uuid.UUID, *ValidationError) {
	fail := func(field, value, format string, args ...any) (uuid.UUID, *ValidationError) {
		return uuid.Nil, &ValidationError{Line: c.Line, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
	}

	if c.Fields < MinFields {
		return fail("", c.Raw, "expected at least %d fields (code;client;city), found %d in %q", MinFields, c.Fields, c.Raw)
	}
	if strings.TrimSpace(c.Code) == "" {
		return fail("code", c.Code, "client code is required")
	}
	if strings.TrimSpace(c.Client) == "" {
		return fail("client", c.Client, "client name is required")
	}
	if strings.TrimSpace(c.City) == "" {
		return fail("city", c.City, "city is required")
	}

	if c.CNPJ != "" {
		digits := OnlyDigits(c.CNPJ)
		if len(digits) != CNPJLength {
			return fail("cnpj", c.CNPJ, "CNPJ must have %d digits (%q)", CNPJLength, c.CNPJ)
		}
		if !ValidCNPJ(digits) {
			return fail("cnpj", c.CNPJ, "CNPJ cannot repeat a single digit (%q)", c.CNPJ)
		}
	}

	if strings.TrimSpace(c.UserID) == "" {
		return fail("user_id", "", "user binding is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(c.UserID))
	if err != nil {
		return fail("user_id", c.UserID, "user binding must be a valid user id (%q)", c.UserID)
	}

	return id, nil
}
