// Package cart holds the terminal's in-memory cart. It is safe for use by the
// request handlers and the mailbox poller at the same time.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-till-service/internal/model"
)

type Cart struct {
	mu    sync.Mutex
	lines []model.CartLine
}

func New() *Cart {
	return &Cart{}
}

// Add merges into an existing line of the same product and unit price, or appends a new line.
func (c *Cart) Add(line model.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	for i := range c.lines {
		if c.lines[i].ProductName == line.ProductName && c.lines[i].UnitPrice.Equal(line.UnitPrice) {
			c.lines[i].Quantity += line.Quantity
			return
		}
	}
	c.lines = append(c.lines, line)
}

// Append adds lines as separate rows without merging.
func (c *Cart) Append(lines ...model.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, lines...)
}

// RemoveOne takes one unit of the first line named name, dropping the line when it reaches zero.
func (c *Cart) RemoveOne(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductName != name {
			continue
		}
		c.lines[i].Quantity--
		if c.lines[i].Quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return true
	}
	return false
}

func (c *Cart) Replace(lines []model.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append([]model.CartLine(nil), lines...)
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.CartLine(nil), c.lines...)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// View is Len and Total read under one lock.
func (c *Cart) View() (int, decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return len(c.lines), total
}

// DropFirst removes the first n lines. Lines appended after a Lines call keep their place.
func (c *Cart) DropFirst(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n >= len(c.lines) {
		c.lines = nil
		return
	}
	c.lines = append([]model.CartLine(nil), c.lines[n:]...)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}
