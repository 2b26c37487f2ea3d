package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/saree-crm/saree-crm/internal/app"
	"github.com/saree-crm/saree-crm/internal/platform/db"
	"github.com/saree-crm/saree-crm/internal/platform/schema"
	"github.com/saree-crm/saree-crm/internal/sales"
)

type demoOrder struct {
	customer int
	saree    string
	notes    string
	amount   string
	status   string
}

var demoCustomers = []sales.CreateCustomerRequest{
	{Name: "Asha Menon", Phone: "98470 12345", Email: "asha@example.com", Address: "MG Road, Kochi"},
	{Name: "Lakshmi Iyer", Phone: "94440 67890", Address: "T Nagar, Chennai"},
	{Name: "Priya Das", Email: "priya.das@example.com"},
}

var demoOrders = []demoOrder{
	{customer: 0, saree: "Kanjivaram Silk", notes: "Maroon with gold zari border", amount: "12,500", status: "Confirmed"},
	{customer: 1, saree: "Chettinad Cotton", notes: "Mustard, fall and pico done", amount: "2,850"},
	{customer: 2, saree: "Banarasi Georgette", notes: "Teal", amount: "8,200", status: "Confirmed"},
}

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	conn, dialect, err := db.New(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer conn.Close()

	fmt.Println("→ Reconciling schema...")
	report := schema.NewReconciler(schema.NewSQLCatalog(conn, dialect), nil).Reconcile(ctx, sales.Tables()...)
	if err := report.Err(); err != nil {
		log.Fatalf("reconcile schema: %v", err)
	}

	svc := sales.NewService(sales.NewRepository(conn, dialect))

	fmt.Println("→ Seeding customers...")
	customers := make([]*sales.Customer, 0, len(demoCustomers))
	for _, req := range demoCustomers {
		c, err := svc.CreateCustomer(ctx, req)
		if err != nil {
			log.Fatalf("seed customer %s: %v", req.Name, err)
		}
		customers = append(customers, c)
	}

	fmt.Println("→ Seeding orders...")
	orders := make([]*sales.Order, 0, len(demoOrders))
	for _, o := range demoOrders {
		form := url.Values{
			"customer_id": {strconv.FormatInt(customers[o.customer].ID, 10)},
			"saree_name":  {o.saree},
			"notes":       {o.notes},
			"amount":      {o.amount},
		}
		if o.status != "" {
			form.Set("order_status", o.status)
		}
		order, err := svc.CreateOrder(ctx, form)
		if err != nil {
			log.Fatalf("seed order %s: %v", o.saree, err)
		}
		orders = append(orders, order)
	}

	fmt.Println("→ Seeding payments...")
	paid := orders[0]
	if _, err := svc.RecordPayment(ctx, url.Values{
		"customer_id": {strconv.FormatInt(paid.CustomerID, 10)},
		"order_id":    {strconv.FormatInt(paid.ID, 10)},
		"amount":      {strconv.FormatFloat(paid.Amount, 'f', 2, 64)},
		"mode":        {"UPI"},
		"notes":       {"UPI ref DEMO-0001"},
	}); err != nil {
		log.Fatalf("seed payment: %v", err)
	}

	fmt.Println("→ Seeding follow-ups...")
	followDate := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)
	if _, err := svc.ScheduleFollowUp(ctx, url.Values{
		"customer_id": {strconv.FormatInt(orders[1].CustomerID, 10)},
		"order_id":    {strconv.FormatInt(orders[1].ID, 10)},
		"follow_date": {followDate},
		"notes":       {"Confirm blouse measurements"},
	}); err != nil {
		log.Fatalf("seed follow-up: %v", err)
	}

	fmt.Printf("✓ Seeded %d customers, %d orders, 1 payment, 1 follow-up\n", len(customers), len(orders))
}
