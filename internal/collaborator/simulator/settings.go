package simulator

import (
	"context"
	"fmt"
	"strings"

	"healthkit-bridge/internal/collaborator"
)

// addNewDataType registers a custom data type. Its name must start with the
// application package name and be unused.
func (s *Simulator) addNewDataType(_ context.Context, req collaborator.AddNewDataTypeRequest) (interface{}, error) {
	if !strings.HasPrefix(req.Name, s.packageName) {
		return nil, fmt.Errorf("%w: data type name must start with %s", ErrInvalidArgument, s.packageName)
	}
	if len(req.Fields) == 0 {
		return nil, fmt.Errorf("%w: data type needs at least one field", ErrInvalidArgument)
	}
	if _, err := s.catalog.DataTypeOf(req.Name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, req.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customTypes[req.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, req.Name)
	}
	fields := append([]string(nil), req.Fields...)
	s.customTypes[req.Name] = fields
	return collaborator.DataTypeInfo{Name: req.Name, Fields: fields}, nil
}

func (s *Simulator) readDataType(_ context.Context, req collaborator.ReadDataTypeRequest) (interface{}, error) {
	fields, _, err := s.fieldsOf(req.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Name)
	}
	return collaborator.DataTypeInfo{Name: req.Name, Fields: fields}, nil
}

// disableHiHealth revokes authorization: controllers, monitors and streams are
// reset and every later call fails until the next sign in.
func (s *Simulator) disableHiHealth(_ context.Context, _ struct{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = false
	s.dataInit = false
	s.sensorsInit = false
	s.bleInit = false
	s.permissions = make(map[string]map[int]bool)
	s.monitored = make(map[string]bool)
	s.stopStreamsLocked()
	return status("authorization revoked", 0), nil
}

func (s *Simulator) signIn(_ context.Context, req collaborator.SignInRequest) (interface{}, error) {
	for _, scope := range req.Scopes {
		if _, err := s.catalog.ScopeOf(scope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}
	s.mu.Lock()
	s.authorized = true
	s.mu.Unlock()
	return collaborator.AccountResponse{
		OpenID:        s.openID,
		DisplayName:   "HealthKit Demo User",
		GrantedScopes: append([]string{}, req.Scopes...),
	}, nil
}
