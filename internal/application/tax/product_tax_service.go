package tax

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
)

// ProductTaxService manages product fiscal configuration
type ProductTaxService struct {
	productTaxRepo tax.ProductTaxRepository
	productRepo    sales.ProductRepository
	reference      *ReferenceData
}

// NewProductTaxService creates a new ProductTaxService
func NewProductTaxService(productTaxRepo tax.ProductTaxRepository, productRepo sales.ProductRepository, reference *ReferenceData) *ProductTaxService {
	return &ProductTaxService{
		productTaxRepo: productTaxRepo,
		productRepo:    productRepo,
		reference:      reference,
	}
}

// Save replaces the fiscal configuration of a product.
// The product must exist and its NCM code must resolve to a catalog entry.
func (s *ProductTaxService) Save(ctx context.Context, tenantID, productID uuid.UUID, req SaveProductTaxRequest) (*ProductTaxResponse, error) {
	if _, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", fmt.Sprintf("Product %s not found", productID))
		}
		return nil, err
	}
	ncmCode, err := tax.NormalizeNCM(req.NCMCode)
	if err != nil {
		return nil, err
	}
	ncm, err := s.reference.ResolveNCM(ctx, tenantID, ncmCode)
	if err != nil {
		return nil, err
	}
	if ncm == nil {
		return nil, shared.NewDomainError("NCM_NOT_FOUND", fmt.Sprintf("NCM %s is not registered", ncmCode))
	}

	origin := tax.ProductOrigin(req.Origin)
	config, err := s.productTaxRepo.FindByProduct(ctx, tenantID, productID)
	switch {
	case err == nil:
		if err := config.Reclassify(ncmCode, origin); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		if config, err = tax.NewProductTax(tenantID, productID, ncmCode, origin); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := applyProductTaxRequest(config, req); err != nil {
		return nil, err
	}
	if err := s.productTaxRepo.Save(ctx, config); err != nil {
		return nil, err
	}

	response := ToProductTaxResponse(config)
	return &response, nil
}

func applyProductTaxRequest(config *tax.ProductTax, req SaveProductTaxRequest) error {
	situations := map[tax.TaxType]string{
		tax.TaxTypeICMS:   req.ICMSSituation,
		tax.TaxTypePIS:    req.PISSituation,
		tax.TaxTypeCOFINS: req.COFINSSituation,
		tax.TaxTypeIPI:    req.IPISituation,
	}
	rates := make(map[tax.TaxType]*valueobject.Percentage, 4)
	var err error
	if rates[tax.TaxTypeICMS], err = toPercentage("icms_rate", req.ICMSRate); err != nil {
		return err
	}
	if rates[tax.TaxTypePIS], err = toPercentage("pis_rate", req.PISRate); err != nil {
		return err
	}
	if rates[tax.TaxTypeCOFINS], err = toPercentage("cofins_rate", req.COFINSRate); err != nil {
		return err
	}
	if rates[tax.TaxTypeIPI], err = toPercentage("ipi_rate", req.IPIRate); err != nil {
		return err
	}
	reducedBase, err := toPercentage("icms_reduced_base", req.ICMSReducedBase)
	if err != nil {
		return err
	}

	for _, taxType := range tax.AllTaxTypes() {
		if err := config.SetSituation(taxType, tax.SituationCode(situations[taxType])); err != nil {
			return err
		}
		if err := config.SetRateOverride(taxType, rates[taxType]); err != nil {
			return err
		}
	}
	if err := config.SetReducedBase(reducedBase); err != nil {
		return err
	}
	config.SetCFOP(req.CFOPIntraState, req.CFOPInterState)
	return nil
}

// Get returns the fiscal configuration of a product
func (s *ProductTaxService) Get(ctx context.Context, tenantID, productID uuid.UUID) (*ProductTaxResponse, error) {
	config, err := s.productTaxRepo.FindByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductTaxResponse(config)
	return &response, nil
}
