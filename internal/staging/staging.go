// Package staging est le canal de passage de la commande en attente à travers
// la redirection vers la page de paiement hébergée : un seul emplacement par
// session de checkout, écrit avant la redirection, lu une seule fois au retour.
package staging

import (
	"context"
	"errors"

	"petshop_storefront/internal/models"
)

// ErrEmpty : rien n'a été déposé, ou la commande a déjà été reprise.
var ErrEmpty = errors.New("aucune commande en attente")

type Store interface {
	// Put écrase le contenu de l'emplacement (le dernier écrivain gagne).
	Put(ctx context.Context, slot string, order *models.PendingOrder) error
	// TakeOnce lit et supprime l'emplacement en une seule opération.
	TakeOnce(ctx context.Context, slot string) (*models.PendingOrder, error)
}
