package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/coderbench/exercise-service/internal/models"
)

// BusinessValidator handles cross-field business rule validation that struct
// tags cannot express.
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{validate: validator.New()}
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return ToValidationErrors(errs)
		}
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "struct"}}
	}
	return nil
}

// ValidateExerciseCreate validates exercise creation business rules.
func (bv *BusinessValidator) ValidateExerciseCreate(req *ExerciseCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	// An unscoped exercise would be visible to no group; reject it at the
	// door rather than persisting dead data.
	if len(req.GroupIDs) == 0 {
		errors = append(errors, ValidationError{
			Field:   "group_ids",
			Message: "exercise must be scoped to at least one group",
			Rule:    "business_logic",
		})
	}

	for i, test := range req.Tests {
		errors = append(errors, bv.validateTestPairing(i, test)...)
	}

	return errors
}

// ValidateTests checks positional pairing on a stored test set before
// evaluating against it.
func (bv *BusinessValidator) ValidateTests(tests []models.CorrectnessTest) ValidationErrors {
	var errors ValidationErrors

	for i, test := range tests {
		if len(test.Inputs) == 0 || len(test.Outputs) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tests[%d]", i),
				Message: "test is missing inputs or expected outputs",
				Rule:    "business_logic",
			})
			continue
		}
		if len(test.Inputs) != len(test.Outputs) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tests[%d]", i),
				Message: fmt.Sprintf("input count %d does not match output count %d", len(test.Inputs), len(test.Outputs)),
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateGrade checks a manual grade value against the grading scale.
func (bv *BusinessValidator) ValidateGrade(grade float64) ValidationErrors {
	if grade < 2.0 || grade > 5.0 {
		return ValidationErrors{{
			Field:   "grade",
			Message: "grade must be between 2.0 and 5.0",
			Value:   grade,
			Rule:    "business_logic",
		}}
	}
	return nil
}

func (bv *BusinessValidator) validateTestPairing(index int, test CorrectnessTestRequest) ValidationErrors {
	if len(test.Inputs) != len(test.Outputs) {
		return ValidationErrors{{
			Field:   fmt.Sprintf("tests[%d]", index),
			Message: fmt.Sprintf("input count %d does not match output count %d", len(test.Inputs), len(test.Outputs)),
			Rule:    "business_logic",
		}}
	}
	return nil
}
