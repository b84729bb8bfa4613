package adapter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	tele "gopkg.in/telebot.v4"

	kit "promobot/internal/transport"
)

// telebot formats unknown API errors as "telegram: <description> (<code>)".
var apiCodeRe = regexp.MustCompile(`\((\d{3})\)$`)

// classify maps platform errors onto kit.ErrForbidden / kit.ErrBadRequest.
// The original error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	code := 0
	var te *tele.Error
	var ge tele.GroupError
	switch {
	case errors.As(err, &te):
		code = te.Code
	case errors.As(err, &ge):
		code = 400
	default:
		if m := apiCodeRe.FindStringSubmatch(err.Error()); m != nil {
			code, _ = strconv.Atoi(m[1])
		}
	}
	switch code {
	case 403:
		return fmt.Errorf("%w: %w", kit.ErrForbidden, err)
	case 400:
		return fmt.Errorf("%w: %w", kit.ErrBadRequest, err)
	}
	return err
}
