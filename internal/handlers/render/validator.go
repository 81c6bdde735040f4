package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("bankcode", validateBankCode)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Bank codes the payout provider routes to, per its published directory.
var knownBankCodes = map[string]struct{}{
	"011": {}, "023": {}, "030": {}, "032": {}, "033": {}, "035": {},
	"044": {}, "050": {}, "057": {}, "058": {}, "063": {}, "068": {},
	"070": {}, "076": {}, "082": {}, "084": {}, "100": {}, "214": {},
	"215": {}, "221": {}, "232": {}, "301": {},
}

func validateBankCode(fl validator.FieldLevel) bool {
	_, ok := knownBankCodes[fl.Field().String()]
	return ok
}
