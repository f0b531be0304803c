package sampledocs

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const dateLayout = "02/01/2006"

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func rjust(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func money(v float64) string {
	return "₹" + humanize.FormatFloat("#,###.##", v)
}

func (g *Generator) prescription(v visit) string {
	const w = 50
	lines := []string{
		strings.Repeat("=", w),
		center(v.hospital.Name, w),
		center(v.hospital.Address, w),
		center("Phone: "+v.hospital.Phone, w),
		strings.Repeat("=", w),
		fmt.Sprintf("%s, %s", v.doctor.Name, v.doctor.Qualification),
		fmt.Sprintf("Reg. No: %s | %s", v.doctor.Registration, v.doctor.Specialty),
		strings.Repeat("-", w),
		"Date: " + v.date.Format(dateLayout),
		"",
		"Patient Name: " + v.patient,
		fmt.Sprintf("Age/Sex: %d yrs / %s", v.age, v.sex),
		"",
		"Chief Complaints:",
	}
	for _, s := range sample(g.rng, v.diagnosis.Symptoms, g.between(1, 3)) {
		lines = append(lines, "  • "+s)
	}
	lines = append(lines, "", "Diagnosis: "+v.diagnosis.Name, "", "Rx", strings.Repeat("-", 30))

	for i, m := range sample(g.rng, medicines, g.between(2, 5)) {
		dosage := pick(g.rng, []string{"1-0-1", "1-1-1", "0-0-1", "1-0-0", "SOS"})
		duration := pick(g.rng, []int{3, 5, 7, 10, 14, 30})
		note := pick(g.rng, []string{"After food", "Before food", "With food", ""})
		lines = append(lines,
			fmt.Sprintf("%d. %s. %s %s", i+1, m.Form, m.Name, m.Strength),
			strings.TrimRight(fmt.Sprintf("   %s x %d days %s", dosage, duration, note), " "),
		)
	}

	if n := g.between(0, 3); n > 0 {
		lines = append(lines, "", "Investigations Advised:")
		for _, panel := range sample(g.rng, labPanels, n) {
			lines = append(lines, "  • "+panel.Name)
		}
	}

	followUp := v.date.AddDate(0, 0, pick(g.rng, []int{7, 14, 30}))
	lines = append(lines,
		"",
		"Follow-up: "+followUp.Format(dateLayout),
		"",
		rjust(strings.Repeat("_", 20), 40),
		rjust(v.doctor.Name, 40),
		strings.Repeat("=", w),
	)
	return strings.Join(lines, "\n")
}

func (g *Generator) medicalBill(v visit) (string, float64) {
	const w = 55
	type line struct {
		desc   string
		amount float64
	}
	items := []line{{"Consultation Fee", float64(pick(g.rng, []int{300, 500, 700, 1000, 1500}))}}
	if g.chance(0.7) {
		for _, panel := range sample(g.rng, labPanels, g.between(1, 3)) {
			items = append(items, line{"Test - " + panel.Name, float64(pick(g.rng, []int{200, 350, 500, 800, 1200}))})
		}
	}
	if g.chance(0.4) {
		procedures := []string{"Dressing", "Injection", "Nebulization", "ECG", "BP Check"}
		for _, p := range sample(g.rng, procedures, g.between(1, 2)) {
			items = append(items, line{p, float64(pick(g.rng, []int{50, 100, 150, 200, 300}))})
		}
	}

	var subtotal float64
	for _, it := range items {
		subtotal += it.amount
	}
	var gst float64
	if g.chance(0.5) {
		gst = round2(subtotal * 0.05)
	}
	discount := round2(subtotal * pick(g.rng, []float64{0, 0, 0.05, 0.1}))
	total := round2(subtotal + gst - discount)

	lines := []string{
		strings.Repeat("=", w),
		center(v.hospital.Name, w),
		center(v.hospital.Address, w),
		center("GST: "+v.hospital.GST, w),
		strings.Repeat("=", w),
		fmt.Sprintf("%-30sDate: %s", fmt.Sprintf("Bill No: BILL%d", g.between(10000, 99999)), v.date.Format(dateLayout)),
		strings.Repeat("-", w),
		"Patient: " + v.patient,
		fmt.Sprintf("Contact: +91 %d", g.between(7000000000, 9999999999)),
		"Ref. By: " + v.doctor.Name,
		strings.Repeat("-", w),
		fmt.Sprintf("%-35s %15s", "PARTICULARS", "AMOUNT"),
		strings.Repeat("-", w),
	}
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%-35s %15s", it.desc, money(it.amount)))
	}
	lines = append(lines, strings.Repeat("-", w), fmt.Sprintf("%-35s %15s", "Sub Total:", money(subtotal)))
	if gst > 0 {
		lines = append(lines, fmt.Sprintf("%-35s %15s", "GST (5%):", money(gst)))
	}
	if discount > 0 {
		lines = append(lines, fmt.Sprintf("%-35s %15s", "Discount:", "-"+money(discount)))
	}
	lines = append(lines,
		strings.Repeat("=", w),
		fmt.Sprintf("%-35s %15s", "TOTAL:", money(total)),
		strings.Repeat("=", w),
		"Payment Mode: "+pick(g.rng, []string{"Cash", "Card", "UPI", "Insurance"}),
		"",
		rjust("Authorized Signatory", 45),
		strings.Repeat("=", w),
	)
	return strings.Join(lines, "\n"), total
}

func (g *Generator) pharmacyBill(v visit) (string, float64) {
	const w = 75
	store := pick(g.rng, pharmacies)
	lines := []string{
		strings.Repeat("=", w),
		center(store.Name, w),
		center(fmt.Sprintf("Drug License: %s | GST: %s", store.License, store.GST), w),
		strings.Repeat("=", w),
		fmt.Sprintf("%-40sDate: %s", fmt.Sprintf("Bill No: PH%d", g.between(10000, 99999)), v.date.Format(dateLayout)),
		fmt.Sprintf("%-40sDoctor: %s", "Patient: "+v.patient, v.doctor.Name),
		strings.Repeat("-", w),
		fmt.Sprintf("%-5s%-30s%-10s%-8s%-6s%8s%10s", "S.No", "Medicine", "Batch", "Exp", "Qty", "MRP", "Amount"),
		strings.Repeat("-", w),
	}

	var subtotal float64
	for i, m := range sample(g.rng, medicines, g.between(2, 6)) {
		qty := pick(g.rng, []int{10, 14, 15, 20, 30})
		amount := round2(m.Price * float64(qty))
		subtotal += amount
		batch := fmt.Sprintf("%c%c%d", 'A'+rune(g.rng.IntN(10)), 'K'+rune(g.rng.IntN(10)), g.between(100, 999))
		expiry := g.now.AddDate(0, g.between(6, 36), 0).Format("01/2006")
		lines = append(lines, fmt.Sprintf("%-5d%-30s%-10s%-8s%-6d%8.2f%10.2f",
			i+1, fmt.Sprintf("%s. %s %s", m.Form, m.Name, m.Strength), batch, expiry, qty, m.Price, amount))
	}
	subtotal = round2(subtotal)
	gst := round2(subtotal * 0.12)
	discount := round2(subtotal * pick(g.rng, []float64{0, 0.05, 0.1, 0.15}))
	total := round2(subtotal + gst - discount)

	lines = append(lines,
		strings.Repeat("-", w),
		fmt.Sprintf("%60s %s", "Sub Total:", money(subtotal)),
		fmt.Sprintf("%60s %s", "GST (12%):", money(gst)),
	)
	if discount > 0 {
		lines = append(lines, fmt.Sprintf("%60s -%s", "Discount:", money(discount)))
	}
	lines = append(lines,
		strings.Repeat("=", w),
		fmt.Sprintf("%60s %s", "NET AMOUNT:", money(total)),
		strings.Repeat("=", w),
		"Payment: "+pick(g.rng, []string{"Cash", "Card", "UPI"}),
		"",
		center("Thank you for your purchase!", w),
		strings.Repeat("=", w),
	)
	return strings.Join(lines, "\n"), total
}

func (g *Generator) labReport(v visit) string {
	const w = 65
	collection := fmt.Sprintf("%d:%s AM", g.between(6, 11), pick(g.rng, []string{"00", "15", "30", "45"}))
	lines := []string{
		strings.Repeat("=", w),
		center(v.hospital.Name+" - DIAGNOSTIC CENTER", w),
		center(v.hospital.Address, w),
		center("NABL Accredited", w),
		strings.Repeat("=", w),
		fmt.Sprintf("%-35sDate: %s", fmt.Sprintf("Report ID: LAB%d", g.between(100000, 999999)), v.date.Format(dateLayout)),
		fmt.Sprintf("%-35sCollection: %s", "Patient: "+v.patient, collection),
		fmt.Sprintf("%-35sRef: %s", fmt.Sprintf("Age/Sex: %d yrs / %s", v.age, v.sex), v.doctor.Name),
		strings.Repeat("=", w),
	}

	for _, panel := range sample(g.rng, labPanels, g.between(1, 3)) {
		lines = append(lines,
			"",
			fmt.Sprintf(">>> %s <<<", strings.ToUpper(panel.Name)),
			strings.Repeat("-", w),
			fmt.Sprintf("%-25s %10s %-12s %-12s %-8s", "PARAMETER", "VALUE", "UNIT", "RANGE", "STATUS"),
			strings.Repeat("-", w),
		)
		for _, p := range panel.Parameters {
			lo, hi := p.Low, p.High
			if g.chance(0.2) {
				lo, hi = p.Low*0.7, p.High*1.3
			}
			value := round2(lo + g.rng.Float64()*(hi-lo))
			status, flag := "Normal", " "
			switch {
			case value > p.High:
				status, flag = "High", "*"
			case value < p.Low:
				status, flag = "Low", "*"
			}
			rng := fmt.Sprintf("%s-%s", humanize.Ftoa(p.Low), humanize.Ftoa(p.High))
			lines = append(lines, fmt.Sprintf("%-25s %10s %-12s %-12s %-8s%s", p.Name, humanize.Ftoa(value), p.Unit, rng, status, flag))
		}
	}

	lines = append(lines,
		"",
		strings.Repeat("=", w),
		"* Values outside normal range",
		"",
		rjust("Pathologist: "+pick(g.rng, pathologists), 55),
		rjust("[Digital Signature]", 55),
		strings.Repeat("=", w),
	)
	return strings.Join(lines, "\n")
}
