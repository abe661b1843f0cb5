package seating

import (
	"fmt"
	"strings"
)

const aisle = ' '

// Layout is a cabin row template; a blank marks the aisle.
type Layout struct {
	Columns []byte
}

// DefaultLayout is A B C | D E F.
var DefaultLayout = Layout{Columns: []byte{'A', 'B', 'C', aisle, 'D', 'E', 'F'}}

func (l Layout) SeatsPerRow() int {
	n := 0
	for _, c := range l.Columns {
		if c != aisle {
			n++
		}
	}
	return n
}

// Rows is ceil(capacity / seats per row).
func (l Layout) Rows(capacity int) int {
	per := l.SeatsPerRow()
	if capacity <= 0 || per == 0 {
		return 0
	}
	return (capacity + per - 1) / per
}

func (l Layout) columnIndex(col byte) int {
	i := 0
	for _, c := range l.Columns {
		if c == aisle {
			continue
		}
		if c == col {
			return i
		}
		i++
	}
	return -1
}

// Seatable reports whether seat exists on a flight of the given capacity.
// Cells on the last row past capacity exist on the map but are not seatable.
func (l Layout) Seatable(seat SeatID, capacity int) bool {
	idx := l.columnIndex(seat.Column)
	if idx < 0 || seat.Row < 1 || seat.Row > l.Rows(capacity) {
		return false
	}
	return (seat.Row-1)*l.SeatsPerRow()+idx < capacity
}

type CellState int

const (
	CellFree CellState = iota
	CellTaken
	CellUnavailable
	CellAisle
)

type Cell struct {
	Seat  SeatID
	State CellState
}

// Label is the text shown inside the cell's brackets; empty for the aisle.
func (c Cell) Label() string {
	switch c.State {
	case CellAisle:
		return ""
	case CellTaken:
		return "XX"
	case CellUnavailable:
		return "--"
	default:
		return c.Seat.String()
	}
}

type Row struct {
	Number int
	Cells  []Cell
}

// Map is a rendered seat map.
type Map struct {
	Layout   Layout
	Capacity int
	Free     int
	Rows     []Row
}

// Render lays out every row/column cell of the cabin and marks occupancy.
func Render(capacity int, occupied Set) Map {
	return DefaultLayout.Render(capacity, occupied)
}

func (l Layout) Render(capacity int, occupied Set) Map {
	rows := l.Rows(capacity)
	m := Map{Layout: l, Capacity: capacity, Rows: make([]Row, 0, rows)}
	for r := 1; r <= rows; r++ {
		row := Row{Number: r, Cells: make([]Cell, 0, len(l.Columns))}
		for _, col := range l.Columns {
			if col == aisle {
				row.Cells = append(row.Cells, Cell{State: CellAisle})
				continue
			}
			seat := SeatID{Row: r, Column: col}
			cell := Cell{Seat: seat}
			switch {
			case !l.Seatable(seat, capacity):
				cell.State = CellUnavailable
			case occupied.Has(seat):
				cell.State = CellTaken
			default:
				cell.State = CellFree
				m.Free++
			}
			row.Cells = append(row.Cells, cell)
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// String draws the map for a terminal.
func (m Map) String() string {
	var b strings.Builder
	b.WriteString("[NN] = Available, [XX] = Booked, [--] = No seat\n\n")
	b.WriteString("          ")
	for _, col := range m.Layout.Columns {
		if col == aisle {
			b.WriteString("   ")
			continue
		}
		fmt.Fprintf(&b, " %c  ", col)
	}
	b.WriteString("\n")
	for _, row := range m.Rows {
		fmt.Fprintf(&b, "Row %-5d ", row.Number)
		for _, cell := range row.Cells {
			if cell.State == CellAisle {
				b.WriteString("   ")
				continue
			}
			fmt.Fprintf(&b, "[%-2s]", cell.Label())
		}
		b.WriteString("\n")
	}
	return b.String()
}
