// internal/mailer/templates.go
package mailer

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"garage-backoffice/internal/pricing"
	"garage-backoffice/internal/registration"
)

// The admin and requester bodies share the same summary table and differ only
// in the framing copy; the admin copy states that the documents are attached.

func registrationSummaryTable(rec *registration.Record) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf(
			"<tr><td style=\"padding:6px 12px;font-weight:bold\">%s</td><td style=\"padding:6px 12px\">%s</td></tr>",
			html.EscapeString(label), html.EscapeString(value)))
	}

	b.WriteString("<table style=\"border-collapse:collapse;border:1px solid #ddd\">")
	row("Prestation", rec.ServiceKey)
	if rec.Vehicle.Make != "" {
		row("Véhicule", strings.TrimSpace(rec.Vehicle.Make+" "+rec.Vehicle.Model))
	}
	if rec.Vehicle.Plate != "" {
		row("Immatriculation", rec.Vehicle.Plate)
	}
	row("Taxes", pricing.FormatEuro(rec.TaxAmount))
	row("Frais de service", pricing.FormatEuro(rec.ServiceFee))
	row("Total", pricing.FormatEuro(rec.TaxAmount.Add(rec.ServiceFee)))
	row("Email", rec.ContactEmail)
	row("Téléphone", rec.ContactPhone)
	b.WriteString("</table>")

	if len(rec.Documents) > 0 {
		types := make([]string, 0, len(rec.Documents))
		for docType := range rec.Documents {
			types = append(types, docType)
		}
		sort.Strings(types)
		b.WriteString("<p>Documents fournis : " + html.EscapeString(strings.Join(types, ", ")) + "</p>")
	}

	return b.String()
}

func adminRegistrationBody(rec *registration.Record) string {
	return fmt.Sprintf(`<html><body>
<h2>Nouvelle demande de carte grise</h2>
<p>Une nouvelle demande vient d'être soumise (référence %s).</p>
%s
<p>Les documents du client sont joints à cet email.</p>
</body></html>`, html.EscapeString(rec.ID), registrationSummaryTable(rec))
}

func requesterRegistrationBody(rec *registration.Record) string {
	return fmt.Sprintf(`<html><body>
<h2>Votre demande de carte grise</h2>
<p>Bonjour,</p>
<p>Nous avons bien reçu votre demande (référence %s). Voici le récapitulatif :</p>
%s
<p>Notre équipe la traite dans les plus brefs délais. Vous serez contacté au numéro indiqué.</p>
<p>Merci de votre confiance.</p>
</body></html>`, html.EscapeString(rec.ID), registrationSummaryTable(rec))
}

// ContactPayload is the public contact-form message.
type ContactPayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Subject         string `json:"subject"`
	Message         string `json:"message"`
	SelectedVehicle string `json:"selectedVehicle,omitempty"`
}

func contactBody(p *ContactPayload) string {
	var b strings.Builder
	b.WriteString("<html><body><h2>Message de contact</h2>")
	b.WriteString(fmt.Sprintf("<p><b>Nom :</b> %s</p>", html.EscapeString(p.Name)))
	b.WriteString(fmt.Sprintf("<p><b>Email :</b> %s</p>", html.EscapeString(p.Email)))
	b.WriteString(fmt.Sprintf("<p><b>Téléphone :</b> %s</p>", html.EscapeString(p.Phone)))
	if p.SelectedVehicle != "" {
		b.WriteString(fmt.Sprintf("<p><b>Véhicule concerné :</b> %s</p>", html.EscapeString(p.SelectedVehicle)))
	}
	b.WriteString(fmt.Sprintf("<p><b>Sujet :</b> %s</p>", html.EscapeString(p.Subject)))
	b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(p.Message)))
	b.WriteString("</body></html>")
	return b.String()
}
