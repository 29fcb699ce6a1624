package log

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldUserID     = "user_id"
	FieldPeriod     = "period"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldStatusCode = "status_code"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentAuth    = "auth"
)

// Operation names used in the operation field.
const (
	OpSetBudget     = "set_budget"
	OpSnapshot      = "month_snapshot"
	OpAddExpense    = "add_expense"
	OpAddIncome     = "add_income"
	OpNotifications = "notifications"
	OpChart         = "chart"
	OpSummary       = "monthly_summary"
	OpAuthenticate  = "authenticate"
	OpExport        = "export"
	OpStartup       = "startup"
	OpShutdown      = "shutdown"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeInternal      = "internal_error"
)

// Fields builds slog key/value pairs in insertion order.
type Fields []any

func NewFields() Fields { return nil }

func (f Fields) Component(c string) Fields { return append(f, FieldComponent, c) }
func (f Fields) Operation(op string) Fields { return append(f, FieldOperation, op) }
func (f Fields) ErrorType(t string) Fields { return append(f, FieldErrorType, t) }
func (f Fields) User(id int64) Fields { return append(f, FieldUserID, id) }
func (f Fields) Period(p string) Fields { return append(f, FieldPeriod, p) }
func (f Fields) Add(key string, v any) Fields { return append(f, key, v) }

func (f Fields) Err(err error) Fields {
	if err == nil {
		return f
	}
	return append(f, FieldError, err.Error())
}
