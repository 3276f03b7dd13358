package facade

import (
	"context"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
)

// AddNewDataType registers a custom data type. The name must carry the app's
// package name as prefix.
func (f *Facade) AddNewDataType(ctx context.Context, name string, fields []string) Outcome[DataTypeInfo] {
	return call(ctx, f, collaborator.OpAddNewDataType,
		func(*catalog.Catalog) (interface{}, error) {
			return collaborator.AddNewDataTypeRequest{Name: name, Fields: nonNil(fields)}, nil
		},
		dataTypeInfoFromWire,
	)
}

func (f *Facade) ReadDataType(ctx context.Context, name string) Outcome[DataTypeInfo] {
	return call(ctx, f, collaborator.OpReadDataType,
		func(*catalog.Catalog) (interface{}, error) {
			return collaborator.ReadDataTypeRequest{Name: name}, nil
		},
		dataTypeInfoFromWire,
	)
}

// DisableHiHealth revokes the app's authorization. Every operation except
// SignIn fails until the user signs in again.
func (f *Facade) DisableHiHealth(ctx context.Context) Outcome[Status] {
	return call(ctx, f, collaborator.OpDisableHiHealth, noRequest, statusFromWire)
}

func (f *Facade) SignIn(ctx context.Context, scopes []catalog.Scope) Outcome[Account] {
	return call(ctx, f, collaborator.OpSignIn,
		func(cat *catalog.Catalog) (interface{}, error) {
			ids := make([]string, 0, len(scopes))
			for _, s := range scopes {
				id, err := cat.ScopeID(s)
				if err != nil {
					return nil, err
				}
				ids = append(ids, id)
			}
			return collaborator.SignInRequest{Scopes: ids}, nil
		},
		func(cat *catalog.Catalog, w collaborator.AccountResponse) (Account, error) {
			scopes, err := scopesOf(cat, w.GrantedScopes)
			if err != nil {
				return Account{}, err
			}
			return Account{OpenID: w.OpenID, DisplayName: w.DisplayName, Scopes: scopes}, nil
		},
	)
}

func dataTypeInfoFromWire(_ *catalog.Catalog, w collaborator.DataTypeInfo) (DataTypeInfo, error) {
	return DataTypeInfo{Name: w.Name, Fields: w.Fields}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
