package store

import (
	"context"
	"fmt"

	"github.com/talgya/vorticog/internal/world"
)

// Seed populates the catalog tables (cities, resources, routes,
// technologies, recipes) when they are empty. Safe to call on every start.
func (s *Store) Seed(ctx context.Context) error {
	cities, err := s.ListCities(ctx)
	if err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if len(cities) > 0 {
		return nil
	}

	return s.WithTx(ctx, func(ts *Store) error {
		for _, c := range seedCities {
			if err := ts.InsertCity(ctx, c); err != nil {
				return fmt.Errorf("seed city %s: %w", c.ID, err)
			}
		}
		for _, r := range seedResources {
			if err := ts.InsertResource(ctx, r); err != nil {
				return fmt.Errorf("seed resource %s: %w", r.ID, err)
			}
		}
		for _, r := range seedRoutes {
			if err := ts.InsertRoute(ctx, r); err != nil {
				return fmt.Errorf("seed route %s: %w", r.ID, err)
			}
		}
		for _, t := range seedTechnologies {
			if err := ts.InsertTechnology(ctx, t); err != nil {
				return fmt.Errorf("seed technology %s: %w", t.ID, err)
			}
		}
		for _, r := range seedRecipes {
			if err := ts.InsertRecipe(ctx, r); err != nil {
				return fmt.Errorf("seed recipe %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

var seedCities = []world.City{
	{ID: "city_veridia", Name: "Veridia", Region: "coast", TaxRate: 0.20},
	{ID: "city_northhaven", Name: "Northhaven", Region: "north", TaxRate: 0.18},
	{ID: "city_ironfell", Name: "Ironfell", Region: "mountains", TaxRate: 0.22},
	{ID: "city_goldport", Name: "Goldport", Region: "coast", TaxRate: 0.25},
	{ID: "city_suncrest", Name: "Suncrest", Region: "plains", TaxRate: 0.15},
}

var seedResources = []world.ResourceType{
	{ID: "res_grain", Name: "Grain", Category: "agriculture", BasePrice: 10},
	{ID: "res_timber", Name: "Timber", Category: "raw", BasePrice: 15},
	{ID: "res_iron_ore", Name: "Iron Ore", Category: "raw", BasePrice: 25},
	{ID: "res_coal", Name: "Coal", Category: "raw", BasePrice: 20},
	{ID: "res_steel", Name: "Steel", Category: "industrial", BasePrice: 60},
	{ID: "res_textiles", Name: "Textiles", Category: "industrial", BasePrice: 40},
	{ID: "res_furniture", Name: "Furniture", Category: "consumer", BasePrice: 90},
	{ID: "res_clothing", Name: "Clothing", Category: "consumer", BasePrice: 70},
	{ID: "res_machinery", Name: "Machinery", Category: "industrial", BasePrice: 200},
	{ID: "res_electronics", Name: "Electronics", Category: "consumer", BasePrice: 300},
}

var seedRoutes = []world.SupplyRoute{
	{ID: "route_veridia_northhaven", FromCityID: "city_veridia", ToCityID: "city_northhaven", Distance: 300, BaseRate: 2.0, Reliability: 0.95, TransitTurns: 2},
	{ID: "route_veridia_goldport", FromCityID: "city_veridia", ToCityID: "city_goldport", Distance: 150, BaseRate: 1.5, Reliability: 0.98, TransitTurns: 1},
	{ID: "route_northhaven_ironfell", FromCityID: "city_northhaven", ToCityID: "city_ironfell", Distance: 450, BaseRate: 3.0, Reliability: 0.85, TransitTurns: 3},
	{ID: "route_ironfell_suncrest", FromCityID: "city_ironfell", ToCityID: "city_suncrest", Distance: 350, BaseRate: 2.5, Reliability: 0.90, TransitTurns: 2},
	{ID: "route_goldport_suncrest", FromCityID: "city_goldport", ToCityID: "city_suncrest", Distance: 500, BaseRate: 2.8, Reliability: 0.88, TransitTurns: 3},
	{ID: "route_veridia_suncrest", FromCityID: "city_veridia", ToCityID: "city_suncrest", Distance: 400, BaseRate: 2.2, Reliability: 0.92, TransitTurns: 2},
}

var seedTechnologies = []world.Technology{
	{ID: "tech_adv_machinery", Name: "Advanced Machinery", Category: "production", Cost: 1000},
	{ID: "tech_basic_automation", Name: "Basic Automation", Category: "production", Cost: 2000, Prerequisites: []string{"tech_adv_machinery"}},
	{ID: "tech_full_automation", Name: "Full Automation", Category: "production", Cost: 5000, Prerequisites: []string{"tech_basic_automation"}},
	{ID: "tech_quality_control", Name: "Quality Control Systems", Category: "production", Cost: 1500},
	{ID: "tech_green_tech", Name: "Green Technology", Category: "production", Cost: 4000, Prerequisites: []string{"tech_adv_machinery"}},
	{ID: "tech_market_analysis", Name: "Market Analysis", Category: "commerce", Cost: 800},
	{ID: "tech_logistics_opt", Name: "Logistics Optimization", Category: "commerce", Cost: 1200},
	{ID: "tech_supply_chain", Name: "Supply Chain Integration", Category: "commerce", Cost: 2500, Prerequisites: []string{"tech_logistics_opt"}},
	{ID: "tech_hr_training", Name: "HR Training Programs", Category: "management", Cost: 1000},
	{ID: "tech_efficiency_mgmt", Name: "Efficiency Management", Category: "management", Cost: 1500, Prerequisites: []string{"tech_hr_training"}},
	{ID: "tech_corporate_culture", Name: "Corporate Culture", Category: "management", Cost: 2000, Prerequisites: []string{"tech_hr_training"}},
	{ID: "tech_research_methods", Name: "Research Methods", Category: "science", Cost: 1500},
	{ID: "tech_innovation_lab", Name: "Innovation Laboratory", Category: "science", Cost: 3000, Prerequisites: []string{"tech_research_methods"}},
}

var seedRecipes = []world.ProductionRecipe{
	{
		ID: "recipe_steel", Name: "Smelt Steel",
		OutputResourceID: "res_steel", OutputQuantity: 10,
		TimeRequired: 5, LaborRequired: 20,
		Inputs: []world.RecipeInput{
			{ResourceID: "res_iron_ore", Quantity: 20},
			{ResourceID: "res_coal", Quantity: 10},
		},
	},
	{
		ID: "recipe_furniture", Name: "Craft Furniture",
		OutputResourceID: "res_furniture", OutputQuantity: 5,
		TimeRequired: 4, LaborRequired: 10,
		Inputs: []world.RecipeInput{
			{ResourceID: "res_timber", Quantity: 15},
		},
	},
	{
		ID: "recipe_clothing", Name: "Sew Clothing",
		OutputResourceID: "res_clothing", OutputQuantity: 8,
		TimeRequired: 3, LaborRequired: 12,
		Inputs: []world.RecipeInput{
			{ResourceID: "res_textiles", Quantity: 10},
		},
	},
	{
		ID: "recipe_machinery", Name: "Assemble Machinery",
		OutputResourceID: "res_machinery", OutputQuantity: 2,
		TimeRequired: 8, LaborRequired: 25,
		RequiredTechID: "tech_adv_machinery",
		Inputs: []world.RecipeInput{
			{ResourceID: "res_steel", Quantity: 8},
		},
	},
	{
		ID: "recipe_electronics", Name: "Fabricate Electronics",
		OutputResourceID: "res_electronics", OutputQuantity: 4,
		TimeRequired: 10, LaborRequired: 30,
		RequiredTechID: "tech_basic_automation",
		Inputs: []world.RecipeInput{
			{ResourceID: "res_steel", Quantity: 4},
			{ResourceID: "res_machinery", Quantity: 1},
		},
	},
}
