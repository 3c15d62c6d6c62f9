package commentservice

import (
	"fmt"
	"strings"

	"github.com/sushihentaime/dreamblog/internal/common"
)

func validateContent(v *common.Validator, content string) {
	v.Check(strings.TrimSpace(content) != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 0, maxContentLength), "content", fmt.Sprintf("must not be more than %d characters long", maxContentLength))
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
