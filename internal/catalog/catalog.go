// internal/catalog/catalog.go
package catalog

import (
	"github.com/shopspring/decimal"

	"garage-backoffice/internal/common/errors"
)

// Service describes one registration procedure the garage handles. The
// catalog is immutable reference data built at process start; changing it is
// a redeploy, not a write path.
type Service struct {
	Key               string          `json:"key"`
	DisplayName       string          `json:"displayName"`
	Fee               decimal.Decimal `json:"fee"`
	Description       string          `json:"description"`
	RequiredDocuments []string        `json:"requiredDocuments"`
	// ProcedureCode is the code sent to the tax lookup oracle for services
	// that need a price breakdown.
	ProcedureCode string `json:"procedureCode,omitempty"`
}

// KeyOwnershipTransfer is the one service whose price depends on the
// tax-lookup oracle. Every other service carries a flat catalog fee.
const KeyOwnershipTransfer = "CHANGEMENT DE TITULAIRE"

var services = map[string]Service{
	KeyOwnershipTransfer: {
		Key:         KeyOwnershipTransfer,
		DisplayName: "Changement de titulaire",
		Fee:         decimal.NewFromInt(49),
		Description: "Mise a jour de la carte grise suite a l'achat d'un vehicule d'occasion",
		RequiredDocuments: []string{
			"carte_grise",
			"piece_identite",
			"justificatif_domicile",
			"certificat_cession",
			"controle_technique",
		},
		ProcedureCode: "CHANGEMENT_TITULAIRE",
	},
	"DECLARATION ACHAT": {
		Key:         "DECLARATION ACHAT",
		DisplayName: "Declaration d'achat",
		Fee:         decimal.NewFromInt(29),
		Description: "Declaration d'achat pour professionnels de l'automobile",
		RequiredDocuments: []string{
			"carte_grise",
			"certificat_cession",
			"piece_identite",
		},
	},
	"DECLARATION VENTE": {
		Key:         "DECLARATION VENTE",
		DisplayName: "Declaration de vente",
		Fee:         decimal.NewFromInt(29),
		Description: "Declaration de cession d'un vehicule",
		RequiredDocuments: []string{
			"carte_grise",
			"certificat_cession",
			"piece_identite",
		},
	},
	"DEMANDE DE DUPLICATA": {
		Key:         "DEMANDE DE DUPLICATA",
		DisplayName: "Demande de duplicata",
		Fee:         decimal.NewFromInt(39),
		Description: "Duplicata de carte grise perdue, volee ou deterioree",
		RequiredDocuments: []string{
			"piece_identite",
			"justificatif_domicile",
			"declaration_perte",
		},
	},
	"CHANGEMENT ADRESSE": {
		Key:         "CHANGEMENT ADRESSE",
		DisplayName: "Changement d'adresse",
		Fee:         decimal.NewFromInt(29),
		Description: "Mise a jour de l'adresse sur la carte grise",
		RequiredDocuments: []string{
			"carte_grise",
			"piece_identite",
			"justificatif_domicile",
		},
	},
	"IMMATRICULATION PROVISOIRE WW": {
		Key:         "IMMATRICULATION PROVISOIRE WW",
		DisplayName: "Immatriculation provisoire WW",
		Fee:         decimal.NewFromInt(59),
		Description: "Immatriculation provisoire pour vehicule importe",
		RequiredDocuments: []string{
			"piece_identite",
			"justificatif_domicile",
			"certificat_cession",
			"carte_grise_etrangere",
		},
	},
}

// Get returns the service definition for key.
func Get(key string) (Service, error) {
	svc, ok := services[key]
	if !ok {
		return Service{}, errors.NewUnknownServiceError(key)
	}
	return svc, nil
}

// IsOwnershipTransfer reports whether the service requires a tax lookup
// before its price is known.
func IsOwnershipTransfer(key string) bool {
	return key == KeyOwnershipTransfer
}

// All returns the catalog entries in a fresh slice for listing pages.
func All() []Service {
	out := make([]Service, 0, len(services))
	for _, svc := range services {
		out = append(out, svc)
	}
	return out
}
