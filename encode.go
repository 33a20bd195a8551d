package folio

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// ledgerColumns are the columns of a ledger CSV file. Symbol, Price,
// Commission, Description, Exchange and Source may be absent.
var ledgerColumns = []string{"Date", "Type", "Symbol", "Quantity", "Price", "Amount", "Commission", "Currency", "Description", "Exchange", "Source"}

// columns maps the header names of a CSV file to their index.
type columns map[string]int

func newColumns(header []string, required ...string) (columns, error) {
	c := make(columns)
	for i, h := range header {
		c[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, r := range required {
		if _, ok := c[r]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", r, header)
		}
	}
	return c, nil
}

func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// DecodeLedger reads a ledger CSV file. Rows are numbered from seq onward,
// in file order; source names the file in error messages and fills the
// Source of rows that have none.
func DecodeLedger(r io.Reader, source string, seq int) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read ledger header in %q: %w", source, err)
	}
	cols, err := newColumns(header, "Date", "Type", "Quantity", "Amount", "Currency")
	if err != nil {
		return nil, fmt.Errorf("invalid ledger %q: %w", source, err)
	}

	var txs []Transaction
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("format error in %q line %d: %w", source, line, err)
		}
		t, err := decodeTransaction(cols, record)
		if err != nil {
			return nil, fmt.Errorf("format error in %q line %d: %w", source, line, err)
		}
		if t.Source == "" {
			t.Source = source
		}
		t.Seq = seq
		seq++
		txs = append(txs, t)
	}
	return txs, nil
}

func decodeTransaction(cols columns, record []string) (Transaction, error) {
	on, err := date.Parse(cols.get(record, "Date"))
	if err != nil {
		return Transaction{}, err
	}
	cur := cols.get(record, "Currency")
	if cur != "" && !ValidCurrency(cur) {
		return Transaction{}, fmt.Errorf("invalid currency %q", cur)
	}
	t := Transaction{
		Date:        on,
		Type:        cols.get(record, "Type"),
		Symbol:      cols.get(record, "Symbol"),
		Description: cols.get(record, "Description"),
		Exchange:    cols.get(record, "Exchange"),
		Source:      cols.get(record, "Source"),
	}
	if t.Quantity, err = ParseQuantity(cols.get(record, "Quantity")); err != nil {
		return Transaction{}, err
	}
	if t.Price, err = ParseMoney(cols.get(record, "Price"), cur); err != nil {
		return Transaction{}, err
	}
	if t.Amount, err = ParseMoney(cols.get(record, "Amount"), cur); err != nil {
		return Transaction{}, err
	}
	if t.Commission, err = ParseMoney(cols.get(record, "Commission"), cur); err != nil {
		return Transaction{}, err
	}
	if cur == "" && !(t.Price.IsZero() && t.Amount.IsZero() && t.Commission.IsZero()) {
		return Transaction{}, fmt.Errorf("missing currency on a %q row with amounts", t.Type)
	}
	return t, nil
}

// EncodeLedger writes transactions as a ledger CSV file.
func EncodeLedger(w io.Writer, txs []Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerColumns); err != nil {
		return err
	}
	for _, t := range txs {
		record := []string{
			t.Date.String(), t.Type, t.Symbol, t.Quantity.String(),
			t.Price.Decimal().String(), t.Amount.Decimal().String(), t.Commission.Decimal().String(),
			t.Currency(), t.Description, t.Exchange, t.Source,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeMapping reads a JSON mapping {raw_type: {"action": ...}}.
func DecodeMapping(r io.Reader) (Mapping, error) {
	var m Mapping
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return m, nil
}

// DecodePrices reads a price history CSV file with the columns
// Date,Open,High,Low,Close,Volume,Dividends,StockSplits. Only Date and Close
// are required.
func DecodePrices(r io.Reader, symbol, currency string) (*PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read %s prices header: %w", symbol, err)
	}
	cols, err := newColumns(header, "Date", "Close")
	if err != nil {
		return nil, fmt.Errorf("invalid %s prices: %w", symbol, err)
	}
	p := NewPriceSeries(symbol, currency)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("format error in %s prices line %d: %w", symbol, line, err)
		}
		b, err := decodeBar(cols, record)
		if err != nil {
			return nil, fmt.Errorf("format error in %s prices line %d: %w", symbol, line, err)
		}
		p.Add(b)
	}
	return p, nil
}

func decodeBar(cols columns, record []string) (Bar, error) {
	raw := cols.get(record, "Date")
	// exports often carry a time part
	if i := strings.IndexAny(raw, " T"); i > 0 {
		raw = raw[:i]
	}
	on, err := date.Parse(raw)
	if err != nil {
		return Bar{}, err
	}
	b := Bar{Date: on}
	fields := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"Open", &b.Open}, {"High", &b.High}, {"Low", &b.Low}, {"Close", &b.Close},
		{"Volume", &b.Volume}, {"Dividends", &b.Dividends}, {"StockSplits", &b.StockSplits},
	}
	for _, f := range fields {
		v := cols.get(record, f.name)
		if v == "" {
			continue
		}
		if *f.dst, err = decimal.NewFromString(v); err != nil {
			return Bar{}, fmt.Errorf("invalid %s %q: %w", f.name, v, err)
		}
	}
	return b, nil
}

// DecodeRates reads a CSV file of Date,Currency,Rate lines, each rate being
// the value in base currency of one unit of Currency.
func DecodeRates(r io.Reader, rates *Rates) error {
	cr := csv.NewReader(bufio.NewReader(r))
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("cannot read rates header: %w", err)
	}
	cols, err := newColumns(header, "Date", "Currency", "Rate")
	if err != nil {
		return fmt.Errorf("invalid rates: %w", err)
	}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("format error in rates line %d: %w", line, err)
		}
		on, err := date.Parse(cols.get(record, "Date"))
		if err != nil {
			return fmt.Errorf("format error in rates line %d: %w", line, err)
		}
		rate, err := decimal.NewFromString(cols.get(record, "Rate"))
		if err != nil {
			return fmt.Errorf("format error in rates line %d: %w", line, err)
		}
		rates.Add(cols.get(record, "Currency"), on, rate)
	}
}

// dailyLine is one JSON line of EncodeDaily.
type dailyLine struct {
	on                                            date.Date
	value, realized, unrealized, income, deposits date.Optional[Money]
}

func (l dailyLine) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", l.on)
	for _, f := range []struct {
		key string
		v   date.Optional[Money]
	}{
		{"value", l.value}, {"realized", l.realized}, {"unrealized", l.unrealized},
		{"income", l.income}, {"netDeposits", l.deposits},
	} {
		if f.v.Valid {
			w.Append(f.key, f.v.Value)
		}
	}
	return w.MarshalJSON()
}

// EncodeDaily writes the portfolio daily series as JSON lines. Absent values
// are omitted, never written as zero.
func EncodeDaily(w io.Writer, p *PortfolioReport, from date.Date) error {
	enc := json.NewEncoder(w)
	for day, value := range p.Value.Values() {
		if day.Before(from) {
			continue
		}
		l := dailyLine{on: day, value: value}
		l.realized.Value, l.realized.Valid = p.Realized.At(day)
		l.unrealized.Value, l.unrealized.Valid = p.Unrealized.At(day)
		l.income.Value, l.income.Valid = p.Income.At(day)
		l.deposits.Value, l.deposits.Valid = p.NetDeposits.At(day)
		if err := enc.Encode(l); err != nil {
			return err
		}
	}
	return nil
}
