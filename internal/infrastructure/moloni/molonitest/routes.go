package molonitest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

type handler func(s *Server, c Call) any

var routes = map[string]handler{
	"grant/": grant,

	"productCategories/getAll/": func(s *Server, c Call) any {
		parent := formInt(c, "parent_id")
		out := []ledger.Category{}
		for _, cat := range s.state.Categories {
			if cat.ParentID == parent {
				out = append(out, cat)
			}
		}
		return out
	},
	"productCategories/getOne/": func(s *Server, c Call) any {
		for _, cat := range s.state.Categories {
			if cat.CategoryID == formInt(c, "category_id") {
				return cat
			}
		}
		return []any{}
	},
	"productCategories/insert/": func(s *Server, c Call) any {
		cat := ledger.Category{
			CategoryID:  s.id(),
			ParentID:    formInt(c, "parent_id"),
			Name:        c.Form.Get("name"),
			Description: c.Form.Get("description"),
		}
		s.state.Categories = append(s.state.Categories, cat)
		return map[string]int{"valid": 1, "category_id": cat.CategoryID}
	},
	"productCategories/update/": func(s *Server, c Call) any {
		for i := range s.state.Categories {
			if s.state.Categories[i].CategoryID == formInt(c, "category_id") {
				s.state.Categories[i].ParentID = formInt(c, "parent_id")
				s.state.Categories[i].Name = c.Form.Get("name")
				return map[string]int{"valid": 1, "category_id": s.state.Categories[i].CategoryID}
			}
		}
		return validResult(false)
	},
	"productCategories/delete/": func(s *Server, c Call) any {
		id := formInt(c, "category_id")
		for i, cat := range s.state.Categories {
			if cat.CategoryID == id {
				s.state.Categories = append(s.state.Categories[:i], s.state.Categories[i+1:]...)
				return validResult(true)
			}
		}
		return validResult(false)
	},

	"products/getAll/": func(s *Server, c Call) any {
		out := []ledger.Product{}
		for _, p := range s.state.Products {
			if p.CategoryID == formInt(c, "category_id") {
				out = append(out, p)
			}
		}
		return out
	},
	"products/getByReference/": func(s *Server, c Call) any {
		out := []ledger.Product{}
		for _, p := range s.state.Products {
			if p.Reference == c.Form.Get("reference") {
				out = append(out, p)
			}
		}
		return out
	},
	"products/insert/": func(s *Server, c Call) any {
		var p ledger.Product
		if err := json.Unmarshal(c.Body, &p); err != nil {
			return validResult(false)
		}
		p.ProductID = s.id()
		s.state.Products = append(s.state.Products, p)
		return map[string]int{"valid": 1, "product_id": p.ProductID}
	},
	"products/update/": func(s *Server, c Call) any {
		var p ledger.Product
		if err := json.Unmarshal(c.Body, &p); err != nil {
			return validResult(false)
		}
		for i := range s.state.Products {
			if s.state.Products[i].ProductID == p.ProductID {
				s.state.Products[i] = p
				return map[string]int{"valid": 1, "product_id": p.ProductID}
			}
		}
		return validResult(false)
	},
	"products/delete/": func(s *Server, c Call) any {
		id := formInt(c, "product_id")
		for i, p := range s.state.Products {
			if p.ProductID == id {
				s.state.Products = append(s.state.Products[:i], s.state.Products[i+1:]...)
				return validResult(true)
			}
		}
		return validResult(false)
	},
	"productStocks/insert/": func(s *Server, c Call) any {
		qty, _ := strconv.ParseFloat(c.Form.Get("qty"), 64)
		m := ledger.StockMovement{
			ProductID:    formInt(c, "product_id"),
			MovementDate: c.Form.Get("movement_date"),
			Qty:          qty,
			WarehouseID:  formInt(c, "warehouse_id"),
			Notes:        c.Form.Get("notes"),
		}
		s.state.StockMovements = append(s.state.StockMovements, m)
		for i := range s.state.Products {
			p := &s.state.Products[i]
			if p.ProductID != m.ProductID {
				continue
			}
			for j := range p.Warehouses {
				if p.Warehouses[j].WarehouseID == m.WarehouseID {
					p.Warehouses[j].Stock += m.Qty
				}
			}
		}
		return map[string]int{"valid": 1, "stock_movement_id": s.id()}
	},

	"warehouses/getAll/": func(s *Server, c Call) any {
		return append([]ledger.Warehouse{}, s.state.Warehouses...)
	},
	"warehouses/insert/": func(s *Server, c Call) any {
		var wh ledger.Warehouse
		if err := json.Unmarshal(c.Body, &wh); err != nil {
			return validResult(false)
		}
		wh.WarehouseID = s.id()
		s.state.Warehouses = append(s.state.Warehouses, wh)
		return map[string]int{"valid": 1, "warehouse_id": wh.WarehouseID}
	},
	"warehouses/update/": func(s *Server, c Call) any {
		var wh ledger.Warehouse
		if err := json.Unmarshal(c.Body, &wh); err != nil {
			return validResult(false)
		}
		for i := range s.state.Warehouses {
			if s.state.Warehouses[i].WarehouseID == wh.WarehouseID {
				s.state.Warehouses[i] = wh
				return map[string]int{"valid": 1, "warehouse_id": wh.WarehouseID}
			}
		}
		return validResult(false)
	},
	"warehouses/delete/": func(s *Server, c Call) any {
		id := formInt(c, "warehouse_id")
		for i, wh := range s.state.Warehouses {
			if wh.WarehouseID == id {
				s.state.Warehouses = append(s.state.Warehouses[:i], s.state.Warehouses[i+1:]...)
				return validResult(true)
			}
		}
		return validResult(false)
	},

	"customers/getByEmail/": func(s *Server, c Call) any {
		// The remote search is a substring match; clients filter exactly.
		needle := strings.ToLower(c.Form.Get("email"))
		out := []ledger.Customer{}
		for _, cust := range s.state.Customers {
			if strings.Contains(strings.ToLower(cust.Email), needle) {
				out = append(out, cust)
			}
		}
		return out
	},
	"customers/getByVat/": func(s *Server, c Call) any {
		out := []ledger.Customer{}
		for _, cust := range s.state.Customers {
			if cust.VAT == c.Form.Get("vat") {
				out = append(out, cust)
			}
		}
		return out
	},
	"customers/count/": func(s *Server, c Call) any {
		return map[string]int{"count": len(s.state.Customers)}
	},
	"customers/insert/": func(s *Server, c Call) any {
		cust, ok := decodeCustomer(c.Body)
		if !ok {
			return validResult(false)
		}
		cust.CustomerID = s.id()
		s.state.Customers = append(s.state.Customers, cust)
		return map[string]int{"valid": 1, "customer_id": cust.CustomerID}
	},
	"customers/update/": func(s *Server, c Call) any {
		cust, ok := decodeCustomer(c.Body)
		if !ok {
			return validResult(false)
		}
		for i := range s.state.Customers {
			if s.state.Customers[i].CustomerID == cust.CustomerID {
				s.state.Customers[i] = cust
				return map[string]int{"valid": 1, "customer_id": cust.CustomerID}
			}
		}
		return validResult(false)
	},

	"purchaseOrder/insert/":   insertDocument(func(st *State) *[]StoredDocument { return &st.PurchaseOrders }),
	"purchaseOrder/getOne/":   getDocument(func(st *State) []StoredDocument { return st.PurchaseOrders }),
	"purchaseOrder/count/":    countDocuments(func(st *State) []StoredDocument { return st.PurchaseOrders }),
	"invoiceReceipts/insert/": insertDocument(func(st *State) *[]StoredDocument { return &st.InvoiceReceipts }),
	"invoiceReceipts/getOne/": getDocument(func(st *State) []StoredDocument { return st.InvoiceReceipts }),
	"invoiceReceipts/count/":  countDocuments(func(st *State) []StoredDocument { return st.InvoiceReceipts }),
	"paymentReturns/insert/":  insertDocument(func(st *State) *[]StoredDocument { return &st.PaymentReturns }),

	"paymentMethods/getAll/": func(s *Server, c Call) any {
		return append([]ledger.PaymentMethod{}, s.state.PaymentMethods...)
	},
	"paymentMethods/insert/": func(s *Server, c Call) any {
		pm := ledger.PaymentMethod{PaymentMethodID: s.id(), Name: c.Form.Get("name")}
		s.state.PaymentMethods = append(s.state.PaymentMethods, pm)
		return map[string]int{"valid": 1, "payment_method_id": pm.PaymentMethodID}
	},

	"documentSets/getAll/": func(s *Server, c Call) any {
		return append([]ledger.DocumentSet{}, s.state.DocumentSets...)
	},
	"documentSets/insert/": func(s *Server, c Call) any {
		set := ledger.DocumentSet{DocumentSetID: s.id(), Name: c.Form.Get("name")}
		s.state.DocumentSets = append(s.state.DocumentSets, set)
		return map[string]int{"valid": 1, "document_set_id": set.DocumentSetID}
	},
	"documentSets/ATInsertCode/": func(s *Server, c Call) any {
		s.state.ATRegistrations = append(s.state.ATRegistrations, ATRegistration{
			DocumentSetID:  formInt(c, "document_set_id"),
			DocumentTypeID: formInt(c, "document_type_id"),
			ATCode:         c.Form.Get("document_set_at_code"),
		})
		return validResult(true)
	},

	"measurementUnits/getAll/": func(s *Server, c Call) any {
		return append([]ledger.MeasurementUnit{}, s.state.Units...)
	},
	"productProperties/getAll/": func(s *Server, c Call) any {
		return append([]ledger.PropertyDefinition{}, s.state.Properties...)
	},
	"productProperties/insert/": func(s *Server, c Call) any {
		p := ledger.PropertyDefinition{PropertyID: s.id(), Title: c.Form.Get("title")}
		s.state.Properties = append(s.state.Properties, p)
		return map[string]int{"valid": 1, "property_id": p.PropertyID}
	},
	"taxes/getAll/": func(s *Server, c Call) any {
		return append([]ledger.Tax{}, s.state.Taxes...)
	},
	"countries/getAll/": func(s *Server, c Call) any {
		return append([]ledger.Country{}, s.state.Countries...)
	},
	"currencies/getAll/": func(s *Server, c Call) any {
		return append([]ledger.Currency{}, s.state.Currencies...)
	},
}

func grant(s *Server, c Call) any {
	s.state.Grants = append(s.state.Grants, c.Form)
	return map[string]any{
		"access_token":  AccessToken,
		"expires_in":    3600,
		"token_type":    "bearer",
		"scope":         nil,
		"refresh_token": "fake-refresh-token",
	}
}

func decodeCustomer(body []byte) (ledger.Customer, bool) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return ledger.Customer{}, false
	}
	return ledger.Customer{
		CustomerID:     bodyInt(m, "customer_id"),
		Number:         bodyString(m, "number"),
		Name:           bodyString(m, "name"),
		VAT:            bodyString(m, "vat"),
		Email:          bodyString(m, "email"),
		Address:        bodyString(m, "address"),
		ZipCode:        bodyString(m, "zip_code"),
		City:           bodyString(m, "city"),
		CountryID:      bodyInt(m, "country_id"),
		Phone:          bodyString(m, "phone"),
		Notes:          bodyString(m, "notes"),
		LanguageID:     bodyInt(m, "language_id"),
		MaturityDateID: bodyInt(m, "maturity_date_id"),
	}, true
}

func insertDocument(list func(*State) *[]StoredDocument) handler {
	return func(s *Server, c Call) any {
		var m map[string]any
		if err := json.Unmarshal(c.Body, &m); err != nil {
			return validResult(false)
		}
		var total float64
		if lines, ok := m["products"].([]any); ok {
			for _, l := range lines {
				line, _ := l.(map[string]any)
				qty, _ := line["qty"].(float64)
				price, _ := line["price"].(float64)
				total += qty * price
			}
		}
		if total == 0 {
			total, _ = m["net_value"].(float64)
		}
		doc := StoredDocument{
			Document: ledger.Document{
				DocumentID:         s.id(),
				DocumentSetID:      bodyInt(m, "document_set_id"),
				CustomerID:         bodyInt(m, "customer_id"),
				Date:               bodyString(m, "date"),
				YourReference:      bodyString(m, "your_reference"),
				NetValue:           total,
				ExchangeTotalValue: total,
				Status:             bodyInt(m, "status"),
			},
			Body: m,
		}
		docs := list(&s.state)
		doc.Number = len(*docs) + 1
		*docs = append(*docs, doc)
		return map[string]int{"valid": 1, "document_id": doc.DocumentID}
	}
}

func getDocument(list func(*State) []StoredDocument) handler {
	return func(s *Server, c Call) any {
		for _, d := range list(&s.state) {
			if id := formInt(c, "document_id"); id > 0 && d.DocumentID != id {
				continue
			}
			if id := formInt(c, "customer_id"); id > 0 && d.CustomerID != id {
				continue
			}
			if ref := c.Form.Get("your_reference"); ref != "" && d.YourReference != ref {
				continue
			}
			return d.Document
		}
		return []any{}
	}
}

func countDocuments(list func(*State) []StoredDocument) handler {
	return func(s *Server, c Call) any {
		n := 0
		for _, d := range list(&s.state) {
			if id := formInt(c, "customer_id"); id > 0 && d.CustomerID != id {
				continue
			}
			n++
		}
		return map[string]int{"count": n}
	}
}
