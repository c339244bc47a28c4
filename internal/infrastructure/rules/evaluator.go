// Package rules evaluates JSONLogic conditions attached to tax exemptions.
//
// A condition sees the facts of one order line:
//
//	product_id, ncm, amount, quantity, origin_state, destination_state, interstate
//
// For example, an exemption limited to roasted coffee shipped out of state:
//
//	{"and": [{"==": [{"substr": [{"var": "ncm"}, 0, 4]}, "0901"]}, {"var": "interstate"}]}
package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"
	apptax "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"go.uber.org/zap"
)

// MaxConditionSize bounds the stored condition text
const MaxConditionSize = 4096

// ErrInvalidCondition is returned for conditions that are not a JSONLogic object
var ErrInvalidCondition = errors.New("invalid exemption condition")

// sampleFacts is used to dry-run a condition before it is stored
var sampleFacts = map[string]any{
	"product_id":        "00000000-0000-0000-0000-000000000000",
	"ncm":               "09012100",
	"amount":            100.0,
	"quantity":          1.0,
	"origin_state":      "SP",
	"destination_state": "RJ",
	"interstate":        true,
}

// Evaluator runs JSONLogic conditions
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator creates an Evaluator
func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Matches applies the condition to the facts and reports whether the result
// is truthy under JSONLogic rules
func (e *Evaluator) Matches(condition string, facts map[string]any) (bool, error) {
	result, err := e.apply(condition, facts)
	if err != nil {
		return false, err
	}
	return truthy(result), nil
}

// Validate checks that the condition is a well formed JSONLogic rule and
// that it evaluates against a sample line
func (e *Evaluator) Validate(condition string) error {
	if len(condition) > MaxConditionSize {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidCondition, MaxConditionSize)
	}
	var rule map[string]any
	if err := json.Unmarshal([]byte(condition), &rule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	if len(rule) == 0 {
		return fmt.Errorf("%w: empty rule", ErrInvalidCondition)
	}
	if !jsonlogic.IsValid(strings.NewReader(condition)) {
		return fmt.Errorf("%w: not a JSONLogic rule", ErrInvalidCondition)
	}
	if _, err := e.apply(condition, sampleFacts); err != nil {
		return err
	}
	return nil
}

func (e *Evaluator) apply(condition string, facts map[string]any) (any, error) {
	dataJSON, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode condition facts: %w", err)
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(strings.NewReader(condition), bytes.NewReader(dataJSON), &out); err != nil {
		e.logger.Debug("Condition evaluation failed", zap.String("condition", condition), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}

	trimmed := bytes.TrimSpace(out.Bytes())
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("failed to decode condition result: %w", err)
	}
	return result, nil
}

// truthy follows JSONLogic: false, null, 0, "" and [] are falsy
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

var (
	_ tax.ConditionEvaluator    = (*Evaluator)(nil)
	_ apptax.ConditionValidator = (*Evaluator)(nil)
)
