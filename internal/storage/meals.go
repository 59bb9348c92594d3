// internal/storage/meals.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"meal-ai/internal/models"
)

func (s *SQLiteStorage) SaveMeal(ctx context.Context, meal *models.Meal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	r := meal.Result
	var advanced string
	if len(r.Advanced) > 0 {
		b, err := json.Marshal(r.Advanced)
		if err != nil {
			return fmt.Errorf("failed to marshal advanced fields: %w", err)
		}
		advanced = string(b)
	}
	var per100 [3]sql.NullFloat64
	if r.Per100g != nil {
		per100 = [3]sql.NullFloat64{
			{Float64: r.Per100g.CarbsG, Valid: true},
			{Float64: r.Per100g.ProteinG, Valid: true},
			{Float64: r.Per100g.FatG, Valid: true},
		}
	}

	mealQuery := `
        INSERT INTO meals (id, source, vendor, query, meal_name, carbs_g, protein_g, fat_g,
            per100_carbs_g, per100_protein_g, per100_fat_g, reasoning, explanation, advanced,
            recomputed, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = tx.ExecContext(ctx, mealQuery,
		meal.ID, string(meal.Source), meal.Vendor, meal.Query, r.MealName,
		r.Totals.CarbsG, r.Totals.ProteinG, r.Totals.FatG,
		per100[0], per100[1], per100[2],
		r.ReasoningText, r.Explanation, advanced,
		meal.Recomputed, formatTime(meal.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}

	foodQuery := `
        INSERT INTO foods (meal_id, name, carbs_g, protein_g, fat_g, confidence, estimated_weight_g, notes)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	for _, food := range r.Foods {
		_, err = tx.ExecContext(ctx, foodQuery,
			meal.ID, food.Name, nullFloat(food.CarbsG), nullFloat(food.ProteinG), nullFloat(food.FatG),
			nullFloat(food.Confidence), nullFloat(food.EstimatedWeightG), food.Notes)
		if err != nil {
			return fmt.Errorf("failed to insert food: %w", err)
		}
	}

	return tx.Commit()
}

// GetMeals returns the newest meals first. startDate and endDate are
// inclusive YYYY-MM-DD bounds in UTC; either may be empty.
func (s *SQLiteStorage) GetMeals(ctx context.Context, startDate, endDate string, limit int) ([]*models.Meal, error) {
	query := `
        SELECT id, source, vendor, query, meal_name, carbs_g, protein_g, fat_g,
            per100_carbs_g, per100_protein_g, per100_fat_g, reasoning, explanation, advanced,
            recomputed, created_at
        FROM meals
        WHERE 1=1
    `
	args := []interface{}{}

	if startDate != "" {
		query += " AND DATE(created_at) >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND DATE(created_at) <= ?"
		args = append(args, endDate)
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []*models.Meal
	for rows.Next() {
		meal := &models.Meal{}
		r := &meal.Result
		var (
			source, advanced, createdAt string
			per100                      [3]sql.NullFloat64
		)

		err := rows.Scan(
			&meal.ID, &source, &meal.Vendor, &meal.Query, &r.MealName,
			&r.Totals.CarbsG, &r.Totals.ProteinG, &r.Totals.FatG,
			&per100[0], &per100[1], &per100[2],
			&r.ReasoningText, &r.Explanation, &advanced,
			&meal.Recomputed, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}

		meal.Source = models.InputSource(source)
		if meal.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if per100[0].Valid && per100[1].Valid && per100[2].Valid {
			r.Per100g = &models.MacroTriple{CarbsG: per100[0].Float64, ProteinG: per100[1].Float64, FatG: per100[2].Float64}
		}
		if advanced != "" {
			if err := json.Unmarshal([]byte(advanced), &r.Advanced); err != nil {
				return nil, fmt.Errorf("failed to parse advanced fields of meal %s: %w", meal.ID, err)
			}
		}

		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read meals: %w", err)
	}

	for _, meal := range meals {
		if err := s.loadFoodsForMeal(ctx, meal); err != nil {
			return nil, fmt.Errorf("failed to load foods for meal %s: %w", meal.ID, err)
		}
	}

	return meals, nil
}

func (s *SQLiteStorage) loadFoodsForMeal(ctx context.Context, meal *models.Meal) error {
	query := `
        SELECT name, carbs_g, protein_g, fat_g, confidence, estimated_weight_g, notes
        FROM foods
        WHERE meal_id = ?
        ORDER BY id
    `

	rows, err := s.db.QueryContext(ctx, query, meal.ID)
	if err != nil {
		return fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	var foods []models.FoodComponent
	for rows.Next() {
		var (
			food                                    models.FoodComponent
			carbs, protein, fat, confidence, weight sql.NullFloat64
		)
		if err := rows.Scan(&food.Name, &carbs, &protein, &fat, &confidence, &weight, &food.Notes); err != nil {
			return fmt.Errorf("failed to scan food: %w", err)
		}
		food.CarbsG = floatPtr(carbs)
		food.ProteinG = floatPtr(protein)
		food.FatG = floatPtr(fat)
		food.Confidence = floatPtr(confidence)
		food.EstimatedWeightG = floatPtr(weight)
		foods = append(foods, food)
	}

	meal.Result.Foods = foods
	return rows.Err()
}
