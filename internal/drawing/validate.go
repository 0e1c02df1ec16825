package drawing

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinStrokeWidth = 1
	MaxStrokeWidth = 100
)

// ErrInvalidAction is wrapped by every rejection returned from Validate
var ErrInvalidAction = errors.New("invalid draw action")

var strokeColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validator checks untrusted draw actions before they reach a room's history.
// It holds no state besides the compiled rules and is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() (*Validator, error) {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("strokecolor", func(fl validator.FieldLevel) bool {
		return strokeColor.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	v.RegisterStructValidation(geometryRules, DrawAction{})

	return &Validator{validate: v}, nil
}

// Validate returns nil when the action is admissible, otherwise an error
// wrapping ErrInvalidAction that names every failed rule.
func (v *Validator) Validate(action DrawAction) error {
	err := v.validate.Struct(action)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidAction, strings.Join(reasons, "; "))
}

// geometryRules covers the tool-dependent shape of an action and the optional
// stroke width, neither of which maps onto plain field tags. Freehand tools
// carry only a points path, every other tool only a start/end pair.
func geometryRules(sl validator.StructLevel) {
	action := sl.Current().Interface().(DrawAction)
	tool := string(action.Tool)

	if action.Tool.Freehand() {
		if len(action.Points) == 0 {
			sl.ReportError(action.Points, "points", "Points", "freehand", tool)
		}
		for _, p := range action.Points {
			if p == nil {
				sl.ReportError(action.Points, "points", "Points", "point", tool)
				break
			}
		}
		if action.StartPoint != nil {
			sl.ReportError(action.StartPoint, "startPoint", "StartPoint", "excluded", tool)
		}
		if action.EndPoint != nil {
			sl.ReportError(action.EndPoint, "endPoint", "EndPoint", "excluded", tool)
		}
	} else if action.Tool != "" {
		if action.StartPoint == nil {
			sl.ReportError(action.StartPoint, "startPoint", "StartPoint", "shape", tool)
		}
		if action.EndPoint == nil {
			sl.ReportError(action.EndPoint, "endPoint", "EndPoint", "shape", tool)
		}
		if len(action.Points) > 0 {
			sl.ReportError(action.Points, "points", "Points", "excluded", tool)
		}
	}

	if w := action.StrokeWidth; w != nil && (*w < MinStrokeWidth || *w > MaxStrokeWidth) {
		sl.ReportError(*w, "strokeWidth", "StrokeWidth", "range", fmt.Sprintf("%d-%d", MinStrokeWidth, MaxStrokeWidth))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("unknown %s %q", fe.Field(), fe.Value())
	case "strokecolor":
		return fmt.Sprintf("%s %q is not #RGB or #RRGGBB", fe.Field(), fe.Value())
	case "freehand":
		return fmt.Sprintf("%s requires a non-empty points path", fe.Param())
	case "shape":
		return fmt.Sprintf("%s requires %s", fe.Param(), fe.Field())
	case "excluded":
		return fmt.Sprintf("%s does not take %s", fe.Param(), fe.Field())
	case "point":
		return fmt.Sprintf("%s %s contains a null point", fe.Param(), fe.Field())
	case "range":
		return fmt.Sprintf("%s %v outside %s", fe.Field(), fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
