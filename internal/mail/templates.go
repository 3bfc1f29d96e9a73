package mail

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const brand = "DayyanINTL"

var verificationTpl = template.Must(template.New("verify").Parse(`<html>
  <body>
    <h2>Welcome to {{.Brand}}</h2>
    <p>Please verify your email address by entering the following code:</p>
    <h1>{{.Code}}</h1>
    <p>This code will expire in {{.Hours}} hours.</p>
  </body>
</html>`))

var orderTpl = template.Must(template.New("order").Parse(`<html>
  <body>
    <h2>New Order Received</h2>
    <p>Order ID: <b>{{.OrderID}}</b></p>
    <p>Order No: <b>{{.OrderNo}}</b></p>
    <p>Total Amount: <b>{{.Total}}</b></p>
    <p>Please check the owner dashboard for details.</p>
  </body>
</html>`))

var statusTpl = template.Must(template.New("status").Parse(`<html>
  <body>
    <h2>Your order has been updated</h2>
    <p>Order <b>{{.OrderNo}}</b> is now <b>{{.Status}}</b>.</p>
  </body>
</html>`))

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err.Error()
	}
	return buf.String()
}

// FormatAmount renders amount as US dollars, e.g. "$ 1234.50".
func FormatAmount(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	p := message.NewPrinter(language.English)
	return p.Sprint(currency.Symbol(currency.USD.Amount(f)))
}

func VerificationEmail(to, code string, hours int) Message {
	return Message{
		To:      to,
		Subject: "Verify your email - " + brand,
		HTML: render(verificationTpl, map[string]interface{}{
			"Brand": brand,
			"Code":  code,
			"Hours": hours,
		}),
	}
}

func OrderNotification(to, orderID, orderNo string, total decimal.Decimal) Message {
	return Message{
		To:      to,
		Subject: "New Order Received: " + orderID,
		HTML: render(orderTpl, map[string]interface{}{
			"OrderID": orderID,
			"OrderNo": orderNo,
			"Total":   FormatAmount(total),
		}),
	}
}

func OrderStatusEmail(to, orderNo, status string) Message {
	return Message{
		To:      to,
		Subject: "Order " + orderNo + " is " + status,
		HTML: render(statusTpl, map[string]interface{}{
			"OrderNo": orderNo,
			"Status":  status,
		}),
	}
}
