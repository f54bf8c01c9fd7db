package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation отказ формы: запись не создается и не сохраняется
var ErrValidation = errors.New("validation rejected")

// FieldError ошибка одного поля формы
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError перечисляет поля, не прошедшие проверку
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation rejected: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// QuantityInput текст количества из формы; принимает JSON-строку или число
type QuantityInput string

func (q *QuantityInput) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*q = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = QuantityInput(s)
		return nil
	}
	*q = QuantityInput(raw)
	return nil
}

// InventoryForm сырые данные формы добавления/редактирования
type InventoryForm struct {
	Name       string        `json:"name" validate:"required,max=100"`
	Category   string        `json:"category" validate:"required"`
	Quantity   QuantityInput `json:"quantity" validate:"required"`
	Unit       string        `json:"unit" validate:"required"`
	ExpiryDate string        `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	NoExpiry   bool          `json:"no_expiry"`
}

// ValidatedInventory проверенные и типизированные поля записи
type ValidatedInventory struct {
	Name       string
	Category   Category
	Quantity   Quantity
	Unit       Unit
	ExpiryDate *Date
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "обязательное поле"
	case "max":
		return "слишком длинное значение"
	case "datetime":
		return "ожидается дата в формате YYYY-MM-DD"
	case "oneof":
		return "недопустимое значение"
	case "email":
		return "неверный формат email"
	case "min":
		return "слишком короткое значение"
	case "eqfield":
		return "значения не совпадают"
	case "gt":
		return "значение должно быть больше 0"
	default:
		return "недопустимое значение"
	}
}

// collectFieldErrors переводит ошибки validator в список полей
func collectFieldErrors(err error, into *ValidationError) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if !into.has(fe.Field()) {
				into.add(fe.Field(), tagMessage(fe.Tag()))
			}
		}
		return nil
	}
	return err
}

// Validate единственная проверка формы перед созданием или обновлением записи
func (f InventoryForm) Validate() (ValidatedInventory, error) {
	// Отметка "без срока" отбрасывает введенную дату до проверки тегов
	if f.NoExpiry {
		f.ExpiryDate = ""
	}
	verr := &ValidationError{}
	if err := formValidator.Struct(f); err != nil {
		if other := collectFieldErrors(err, verr); other != nil {
			return ValidatedInventory{}, fmt.Errorf("validate inventory form: %w", other)
		}
	}

	var out ValidatedInventory

	out.Name = strings.TrimSpace(f.Name)
	if out.Name == "" && !verr.has("name") {
		verr.add("name", "обязательное поле")
	}

	if !verr.has("category") {
		c, err := ParseCategory(f.Category)
		if err != nil {
			verr.add("category", "выберите категорию")
		}
		out.Category = c
	}

	if !verr.has("quantity") {
		q, err := ParseQuantity(string(f.Quantity))
		if err != nil {
			verr.add("quantity", "количество должно быть числом больше 0")
		}
		out.Quantity = q
	}

	if !verr.has("unit") {
		u, err := ParseUnit(f.Unit)
		if err != nil {
			verr.add("unit", "выберите единицу измерения")
		}
		out.Unit = u
	}

	if strings.TrimSpace(f.ExpiryDate) != "" && !verr.has("expiry_date") {
		d, err := ParseDate(f.ExpiryDate)
		if err != nil {
			verr.add("expiry_date", tagMessage("datetime"))
		} else {
			out.ExpiryDate = &d
		}
	}

	if len(verr.Fields) > 0 {
		return ValidatedInventory{}, verr
	}
	return out, nil
}

// FormFromRecord заполняет форму редактирования значениями записи, включая единицу измерения
func FormFromRecord(r InventoryRecord) InventoryForm {
	form := InventoryForm{
		Name:     r.Name,
		Category: string(r.Category),
		Quantity: QuantityInput(r.Quantity.String()),
		Unit:     string(r.Unit),
		NoExpiry: r.ExpiryDate == nil,
	}
	if r.ExpiryDate != nil {
		form.ExpiryDate = r.ExpiryDate.String()
	}
	return form
}

// ValidateStruct проверяет теги validate у произвольного запроса и возвращает ValidationError
func ValidateStruct(s interface{}) error {
	verr := &ValidationError{}
	if err := formValidator.Struct(s); err != nil {
		if other := collectFieldErrors(err, verr); other != nil {
			return other
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
