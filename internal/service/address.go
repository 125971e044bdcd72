package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ruralmatch/internal/model"
	"ruralmatch/internal/utils"

	"go.uber.org/zap"
)

const (
	msgAddressEmpty       = "Informe o endereço do imóvel."
	msgAddressUnreachable = "Não foi possível validar o endereço agora. Verifique sua conexão e tente novamente."
	msgAddressNotFound    = "Endereço não encontrado no mapa. Confira cidade e estado e tente novamente."
)

// AddressValidator checks seller addresses against the geocoding provider.
type AddressValidator struct {
	geocoder GeocodeClient
}

// NewAddressValidator creates a validator backed by g.
func NewAddressValidator(g GeocodeClient) *AddressValidator {
	return &AddressValidator{geocoder: g}
}

// Validate resolves address. Provider failures and empty results both yield
// Valid=false; only Message tells them apart.
func (v *AddressValidator) Validate(ctx context.Context, address string) model.GeocodeResult {
	address = strings.TrimSpace(address)
	if address == "" {
		return model.GeocodeResult{Message: msgAddressEmpty}
	}

	resp, err := v.geocoder.Geocode(ctx, address)
	if err != nil {
		zap.L().Warn("address validation failed", zap.String("address", address), zap.Error(err))
		return model.GeocodeResult{Message: msgAddressUnreachable}
	}

	for _, place := range resp.Places {
		if !place.HasCoordinates() {
			continue
		}
		result := model.GeocodeResult{
			Valid:              true,
			Coordinates:        fmt.Sprintf("%.6f,%.6f", *place.Latitude, *place.Longitude),
			DisplayAddress:     place.Address,
			RawProviderPayload: resp.Raw,
		}
		if result.DisplayAddress == "" {
			result.DisplayAddress = place.Title
		}
		city, state, ok := ExtractCityState(place.Address)
		if !ok {
			city, state, ok = ExtractCityState(place.Title)
		}
		if ok {
			result.City, result.State = city, state
		}
		return result
	}

	zap.L().Info("address not found", zap.String("address", address), zap.Int("places", len(resp.Places)))
	return model.GeocodeResult{Message: msgAddressNotFound, RawProviderPayload: resp.Raw}
}

var trailingPostal = regexp.MustCompile(`[\d\s-]+$`)

// ExtractCityState reads "<locality> - <region>" or "<locality>, <region>"
// out of a formatted address. The region may be a UF code or a full state
// name. Nothing is guessed when neither pattern matches.
func ExtractCityState(text string) (city, state string, ok bool) {
	segments := strings.Split(text, ",")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	for _, seg := range segments {
		idx := strings.LastIndex(seg, " - ")
		if idx <= 0 {
			continue
		}
		locality := strings.TrimSpace(seg[:idx])
		if code, found := regionCode(seg[idx+3:]); found && locality != "" {
			return locality, code, true
		}
	}

	for i := len(segments) - 2; i >= 0; i-- {
		locality := segments[i]
		if locality == "" || startsWithDigitRune(locality) {
			continue
		}
		if code, found := regionCode(segments[i+1]); found {
			return locality, code, true
		}
	}
	return "", "", false
}

func regionCode(region string) (string, bool) {
	region = strings.TrimSpace(trailingPostal.ReplaceAllString(region, ""))
	if region == "" {
		return "", false
	}
	return utils.StateCode(region)
}

func startsWithDigitRune(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
