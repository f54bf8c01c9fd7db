package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryStorageKey ключ, под которым хранится вся коллекция инвентаря
const InventoryStorageKey = "inventoryItems"

// Category представляет категорию продукта
type Category string

const (
	CategoryProtein      Category = "Protein"
	CategoryCarbohydrate Category = "Karbohidrat"
	CategoryVegetable    Category = "Sayur"
	CategoryFruit        Category = "Buah"
	CategoryDairyProduct Category = "Produk susu"
)

// Categories список категорий в порядке отображения
var Categories = []Category{
	CategoryProtein,
	CategoryCarbohydrate,
	CategoryVegetable,
	CategoryFruit,
	CategoryDairyProduct,
}

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownUnit     = errors.New("unknown unit")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidDate     = errors.New("invalid date")
)

var categoryAliases = map[string]Category{
	"protein":       CategoryProtein,
	"karbohidrat":   CategoryCarbohydrate,
	"carbohydrate":  CategoryCarbohydrate,
	"sayur":         CategoryVegetable,
	"vegetable":     CategoryVegetable,
	"buah":          CategoryFruit,
	"fruit":         CategoryFruit,
	"produk susu":   CategoryDairyProduct,
	"dairyproduct":  CategoryDairyProduct,
	"dairy product": CategoryDairyProduct,
	"dairy":         CategoryDairyProduct,
}

// ParseCategory разбирает категорию; принимает как хранимые, так и английские названия
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownCategory)
	}
	if c, ok := categoryAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Valid проверяет, что категория входит в закрытый список
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// AllCategoriesLabel метка фильтра "все категории"
const AllCategoriesLabel = "Semua"

// CategoryFilter фильтр списка: конкретная категория либо "Semua".
// Нулевое значение означает "все категории".
type CategoryFilter struct {
	category Category
}

// AllCategories возвращает фильтр без ограничения по категории
func AllCategories() CategoryFilter { return CategoryFilter{} }

// OnlyCategory возвращает фильтр по одной категории
func OnlyCategory(c Category) CategoryFilter { return CategoryFilter{category: c} }

// ParseCategoryFilter разбирает значение фильтра; пустая строка, "Semua" и "All" дают фильтр без ограничений
func ParseCategoryFilter(s string) (CategoryFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "semua", "all":
		return AllCategories(), nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return CategoryFilter{}, err
	}
	return OnlyCategory(c), nil
}

func (f CategoryFilter) IsAll() bool { return f.category == "" }

// Category возвращает выбранную категорию; ok == false для "Semua"
func (f CategoryFilter) Category() (Category, bool) {
	return f.category, f.category != ""
}

// Matches сообщает, проходит ли категория через фильтр
func (f CategoryFilter) Matches(c Category) bool {
	return f.IsAll() || f.category == c
}

func (f CategoryFilter) String() string {
	if f.IsAll() {
		return AllCategoriesLabel
	}
	return string(f.category)
}

func (f CategoryFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *CategoryFilter) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategoryFilter(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Unit единица измерения количества
type Unit string

const (
	UnitEkor       Unit = "ekor"
	UnitGram       Unit = "gram (gr)"
	UnitMilliliter Unit = "mililiter (ml)"
	UnitBuah       Unit = "buah"
	UnitSlice      Unit = "potong/slice"
	UnitBungkus    Unit = "bungkus"
	UnitLusin      Unit = "lusin"
	UnitButir      Unit = "butir"
)

// Units список единиц в порядке отображения
var Units = []Unit{
	UnitEkor,
	UnitGram,
	UnitMilliliter,
	UnitBuah,
	UnitSlice,
	UnitBungkus,
	UnitLusin,
	UnitButir,
}

// ParseUnit разбирает единицу измерения (без учета регистра)
func ParseUnit(s string) (Unit, error) {
	key := strings.TrimSpace(s)
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownUnit)
	}
	for _, u := range Units {
		if strings.EqualFold(string(u), key) {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

func (u Unit) Valid() bool {
	_, err := ParseUnit(string(u))
	return err == nil
}

// Quantity количество продукта. Через форму создается только положительное значение,
// при чтении из хранилища значение не перепроверяется.
type Quantity struct {
	d decimal.Decimal
}

// Пределы количества: текст длиннее maxQuantityText не разбирается,
// у разобранного значения ограничены порядок и число значащих цифр.
const (
	maxQuantityText     = 64
	maxQuantityExponent = 9
	maxQuantityDigits   = 18
)

// NewQuantity создает количество, отклоняя нулевые, отрицательные и слишком большие значения
func NewQuantity(d decimal.Decimal) (Quantity, error) {
	if !d.IsPositive() {
		return Quantity{}, fmt.Errorf("%w: must be greater than 0", ErrInvalidQuantity)
	}
	if err := checkQuantityBounds(d); err != nil {
		return Quantity{}, err
	}
	return Quantity{d: d}, nil
}

func checkQuantityBounds(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp > maxQuantityExponent || exp < -maxQuantityExponent {
		return fmt.Errorf("%w: exponent %d out of range", ErrInvalidQuantity, exp)
	}
	if d.NumDigits() > maxQuantityDigits {
		return fmt.Errorf("%w: too many digits", ErrInvalidQuantity)
	}
	return nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	if len(raw) > maxQuantityText {
		return decimal.Zero, fmt.Errorf("%w: value too long", ErrInvalidQuantity)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidQuantity, raw)
	}
	return d, nil
}

// ParseQuantity разбирает количество из текстового поля формы
func ParseQuantity(s string) (Quantity, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Quantity{}, fmt.Errorf("%w: empty", ErrInvalidQuantity)
	}
	d, err := parseDecimal(raw)
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantity(d)
}

// MustParseQuantity как ParseQuantity, но паникует при ошибке
func MustParseQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Decimal() decimal.Decimal { return q.d }

func (q Quantity) IsPositive() bool { return q.d.IsPositive() }

func (q Quantity) Equal(other Quantity) bool { return q.d.Equal(other.d) }

func (q Quantity) Float64() float64 {
	f, _ := q.d.Float64()
	return f
}

func (q Quantity) String() string { return q.d.String() }

// MarshalJSON пишет количество числом, как его хранил мобильный клиент
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.d.String()), nil
}

// UnmarshalJSON принимает число или строку с числом. Положительность не проверяется.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*q = Quantity{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuantity, err)
		}
		raw = unquoted
	}
	d, err := parseDecimal(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	// Размер ограничен и для данных из хранилища
	if err := checkQuantityBounds(d); err != nil {
		return err
	}
	q.d = d
	return nil
}

// DateLayout формат даты от календаря клиента
const DateLayout = "2006-01-02"

// Date календарная дата без времени
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// MustParseDate как ParseDate, но паникует при ошибке
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf возвращает календарную дату момента t в его часовом поясе
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time возвращает полночь даты по UTC
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }

func (d Date) String() string { return d.Time().Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// InventoryRecord один продукт в инвентаре
type InventoryRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Quantity   Quantity `json:"quantity"`
	Unit       Unit     `json:"unit"`
	ExpiryDate *Date    `json:"expiryDate"`
	ImageURI   *string  `json:"imageUri"`
}

// Clone возвращает копию записи, не разделяющую указатели с исходной
func (r InventoryRecord) Clone() InventoryRecord {
	out := r
	if r.ExpiryDate != nil {
		d := *r.ExpiryDate
		out.ExpiryDate = &d
	}
	if r.ImageURI != nil {
		uri := *r.ImageURI
		out.ImageURI = &uri
	}
	return out
}

// CloneRecords копирует коллекцию; nil превращается в пустой срез
func CloneRecords(records []InventoryRecord) []InventoryRecord {
	out := make([]InventoryRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
