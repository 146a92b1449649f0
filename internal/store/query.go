package store

// Composable lesson queries. A Query ANDs its clauses; each clause ORs its
// predicates. Both store implementations interpret the same structure, so
// callers compose once and stay storage-agnostic.

// Field names a queryable lesson column.
type Field string

const (
	FieldStartTime       Field = "start_time"
	FieldEndTime         Field = "end_time"
	FieldStatus          Field = "status"
	FieldCourseNr        Field = "course_nr"
	FieldCourseName      Field = "course_name"
	FieldCourseShortName Field = "course_short_name"
	FieldSubject         Field = "subject"
	FieldShortSubject    Field = "short_subject"
	FieldTeacher         Field = "teacher"
	FieldShortTeacher    Field = "short_teacher"
	FieldRoom            Field = "room"
	FieldShortRoom       Field = "short_room"
)

// Op is a predicate operator.
type Op int

const (
	// OpEquals matches exact field values.
	OpEquals Op = iota
	// OpNotEquals excludes exact field values.
	OpNotEquals
	// OpGte / OpLte bound orderable fields (timestamps, course numbers).
	OpGte
	OpLte
	// OpMatch is a case-insensitive substring match on text fields.
	OpMatch
)

// Predicate is one field condition.
type Predicate struct {
	Field Field
	Op    Op
	Value interface{}
}

func Equals(f Field, v interface{}) Predicate    { return Predicate{Field: f, Op: OpEquals, Value: v} }
func NotEquals(f Field, v interface{}) Predicate { return Predicate{Field: f, Op: OpNotEquals, Value: v} }
func Gte(f Field, v interface{}) Predicate       { return Predicate{Field: f, Op: OpGte, Value: v} }
func Lte(f Field, v interface{}) Predicate       { return Predicate{Field: f, Op: OpLte, Value: v} }
func Match(f Field, text string) Predicate       { return Predicate{Field: f, Op: OpMatch, Value: text} }

// Clause is an OR-group of predicates.
type Clause []Predicate

// Or builds a clause from its predicates.
func Or(preds ...Predicate) Clause { return Clause(preds) }

// Query selects lessons matching every clause, sorted by OrderBy.
type Query struct {
	Clauses []Clause
	OrderBy Field // defaults to start_time
	Desc    bool
}

// And appends a clause and returns the query for chaining.
func (q Query) And(c Clause) Query {
	q.Clauses = append(q.Clauses, c)
	return q
}

func (q Query) orderField() Field {
	if q.OrderBy == "" {
		return FieldStartTime
	}
	return q.OrderBy
}
