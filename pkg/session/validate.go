package session

import (
	goerrors "errors"

	"github.com/go-playground/validator/v10"
	"github.com/tyler-smith/go-bip39"

	"github.com/status-im/status-identity-go/pkg/fingerprint"
	"github.com/status-im/status-identity-go/pkg/mnemonic"
	"github.com/status-im/status-identity-go/pkg/wallet"
)

var (
	validate = validator.New()
)

func init() {
	rules := map[string]validator.Func{
		"mnemonic":  isMnemonic,
		"deviceid":  isDeviceID,
		"chaintype": isChainType,
	}
	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
}

func validateRequest(v interface{}) error {
	err := validate.Struct(v)
	if err != nil {
		errs := err.(validator.ValidationErrors)
		return goerrors.Join(errs)
	}
	return nil
}

// Custom validation function to check for a 12-word English mnemonic
func isMnemonic(fl validator.FieldLevel) bool {
	phrase := fl.Field().String()
	if !bip39.IsMnemonicValid(phrase) {
		return false
	}
	_, err := mnemonic.Parse(phrase)
	return err == nil
}

func isDeviceID(fl validator.FieldLevel) bool {
	return fingerprint.IsValidDeviceID(fl.Field().String())
}

func isChainType(fl validator.FieldLevel) bool {
	_, err := wallet.ParseChainType(fl.Field().String())
	return err == nil
}
