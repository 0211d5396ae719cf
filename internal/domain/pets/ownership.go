package pets

import "context"

// OwnerOf expone el guardian (ownerUserID) de una mascota.
// Todos los módulos de access-control lo consumen vía interfaces locales
// para no importar este paquete y evitar ciclos.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}
