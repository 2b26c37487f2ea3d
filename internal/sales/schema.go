package sales

import "github.com/saree-crm/saree-crm/internal/platform/schema"

// Table names.
const (
	customersTable = "customers"
	ordersTable    = "orders"
	paymentsTable  = "payments"
	followUpsTable = "followups"
)

// Tables declares the persisted shape of every sales entity. The reconciler
// brings the store up to these shapes at startup.
func Tables() []schema.Table {
	return []schema.Table{
		{
			Name: customersTable,
			Columns: []schema.Column{
				{Name: "id", Type: schema.Integer, PrimaryKey: true},
				{Name: "name", Type: schema.String, Size: 200, NotNull: true},
				{Name: "phone", Type: schema.String, Size: 40},
				{Name: "email", Type: schema.String, Size: 200},
				{Name: "address", Type: schema.Text},
				{Name: "created_at", Type: schema.DateTime},
			},
		},
		{
			Name: ordersTable,
			Columns: []schema.Column{
				{Name: "id", Type: schema.Integer, PrimaryKey: true},
				{Name: "customer_id", Type: schema.Integer, NotNull: true, Indexed: true},
				{Name: "saree_name", Type: schema.String, Size: 200, NotNull: true},
				{Name: "amount", Type: schema.Float, NotNull: true},
				{Name: "order_status", Type: schema.String, Size: 50, NotNull: true},
				{Name: "delivery_status", Type: schema.String, Size: 50, NotNull: true},
				{Name: "payment_status", Type: schema.String, Size: 50, NotNull: true},
				{Name: "payment_mode", Type: schema.String, Size: 50},
				{Name: "notes", Type: schema.Text},
				{Name: "created_at", Type: schema.DateTime},
				{Name: "updated_at", Type: schema.DateTime},
			},
		},
		{
			Name: paymentsTable,
			Columns: []schema.Column{
				{Name: "id", Type: schema.Integer, PrimaryKey: true},
				{Name: "order_id", Type: schema.Integer, Indexed: true},
				{Name: "customer_id", Type: schema.Integer, NotNull: true, Indexed: true},
				{Name: "amount", Type: schema.Float, NotNull: true},
				{Name: "mode", Type: schema.String, Size: 50, NotNull: true},
				{Name: "received_at", Type: schema.DateTime},
				{Name: "notes", Type: schema.Text},
			},
		},
		{
			Name: followUpsTable,
			Columns: []schema.Column{
				{Name: "id", Type: schema.Integer, PrimaryKey: true},
				{Name: "customer_id", Type: schema.Integer, NotNull: true, Indexed: true},
				{Name: "order_id", Type: schema.Integer, Indexed: true},
				{Name: "follow_date", Type: schema.DateTime, NotNull: true},
				{Name: "done", Type: schema.Boolean},
				{Name: "notes", Type: schema.Text},
				{Name: "created_at", Type: schema.DateTime},
			},
		},
	}
}
