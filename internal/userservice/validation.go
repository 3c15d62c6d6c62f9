package userservice

import (
	"regexp"

	"github.com/sushihentaime/dreamblog/internal/common"
)

var (
	EmailRX     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	UsernameRX  = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
	PhoneRX     = regexp.MustCompile(`^\+?[0-9 ]{6,20}$`)
	UppercaseRX = regexp.MustCompile("[A-Z]")
	LowercaseRX = regexp.MustCompile("[a-z]")
	NumberRX    = regexp.MustCompile("[0-9]")
	SymbolRX    = regexp.MustCompile(`[!?._&%-]`)
)

func validateUsername(v *common.Validator, username string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(v.CheckStringLength(username, 3, 30), "username", "must be between 3 and 30 characters long")
	v.Check(UsernameRX.MatchString(username), "username", "can only contain letters, numbers, dots, and underscores")
}

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(EmailRX.MatchString(email), "email", "must be a valid email address")
}

func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password", "must be provided")

	value := v.CheckStringLength(password, 12, 72) && UppercaseRX.MatchString(password) && LowercaseRX.MatchString(password) && NumberRX.MatchString(password) && SymbolRX.MatchString(password)
	v.Check(value, "password", "must be between 12 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one of !?._&%-")
}

func validateDeviceID(v *common.Validator, deviceID string) {
	v.Check(len(deviceID) <= 100, "device_id", "must not be more than 100 bytes long")
}

func validatePhone(v *common.Validator, phone string) {
	v.Check(phone == "" || PhoneRX.MatchString(phone), "phone", "must be a valid phone number")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
