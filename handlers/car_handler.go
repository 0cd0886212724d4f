package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// CarView shadows the raw JSON columns with their normalized list form so
// clients never see the legacy string encoding.
type CarView struct {
	models.Car
	Features []string `json:"features"`
	Images   []string `json:"images"`
}

func carView(car models.Car) CarView {
	return CarView{Car: car, Features: car.FeatureList(), Images: car.ImageList()}
}

func carViews(cars []models.Car) []CarView {
	views := make([]CarView, 0, len(cars))
	for _, car := range cars {
		views = append(views, carView(car))
	}
	return views
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, services.NewValidationError("start_date", "must be a YYYY-MM-DD date")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, services.NewValidationError("end_date", "must be a YYYY-MM-DD date")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, services.NewValidationError("end_date", "must be after start_date")
	}
	return start, end, nil
}

func ListCars(c *fiber.Ctx) error {
	limit, offset := pageParams(c)

	query := database.DB.Where("status = ?", models.CarStatusApproved)

	if city := c.Query("city"); city != "" {
		query = query.Where("city ILIKE ?", city)
	}
	if make := c.Query("make"); make != "" {
		query = query.Where("make ILIKE ?", make)
	}
	if transmission := c.Query("transmission"); transmission != "" {
		query = query.Where("transmission = ?", transmission)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price_per_day >= ?", v)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price_per_day <= ?", v)
		}
	}
	if seats := c.Query("seats"); seats != "" {
		if v, err := strconv.Atoi(seats); err == nil {
			query = query.Where("seats >= ?", v)
		}
	}

	var cars []models.Car
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&cars).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch cars"})
	}

	return c.JSON(carViews(cars))
}

func GetCar(c *fiber.Ctx) error {
	carID := c.Params("carId")

	var car models.Car
	if err := database.DB.Preload("Owner").First(&car, "id = ?", carID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
	}

	return c.JSON(carView(car))
}

// CheckAvailability answers whether a car is free for the requested range.
// Pure read; the authoritative check happens again at booking creation.
func CheckAvailability(c *fiber.Ctx) error {
	carID, err := uuid.Parse(c.Params("carId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid car id"})
	}

	start, end, err := parseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return respondServiceError(c, err)
	}

	available, err := services.CheckCarAvailability(carID, start, end)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"available": available})
}

func CalculatePrice(c *fiber.Ctx) error {
	carID := c.Params("carId")

	start, end, err := parseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return respondServiceError(c, err)
	}

	var car models.Car
	if err := database.DB.First(&car, "id = ?", carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	quote, err := services.QuoteForRange(car.PricePerDay, start, end, services.OwnerTier(car.OwnerID))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(quote)
}

type CarRequest struct {
	Make         string   `json:"make" validate:"required,min=2"`
	Model        string   `json:"model" validate:"required,min=1"`
	Year         int      `json:"year" validate:"required,min=1980"`
	PricePerDay  float64  `json:"price_per_day" validate:"required,gt=0"`
	City         string   `json:"city" validate:"required"`
	Seats        int      `json:"seats,omitempty"`
	Transmission string   `json:"transmission,omitempty" validate:"omitempty,oneof=manual automatic"`
	Features     []string `json:"features,omitempty"`
	Images       []string `json:"images,omitempty"`
}

func CreateCar(c *fiber.Ctx) error {
	ownerID := currentUserID(c)

	var req CarRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	seats := 5
	if req.Seats > 0 {
		seats = req.Seats
	}

	newCar := models.Car{
		OwnerID:      ownerID,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		PricePerDay:  req.PricePerDay,
		City:         req.City,
		Seats:        seats,
		Transmission: req.Transmission,
		Features:     models.MarshalStringList(req.Features),
		Images:       models.MarshalStringList(req.Images),
	}

	if err := database.DB.Create(&newCar).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create car listing"})
	}

	return c.Status(fiber.StatusCreated).JSON(carView(newCar))
}

func UpdateMyCar(c *fiber.Ctx) error {
	ownerID := currentUserID(c)
	carID := c.Params("carId")

	var car models.Car
	if err := database.DB.First(&car, "id = ?", carID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
	}
	if car.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your car"})
	}

	var req CarRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	car.Make = req.Make
	car.Model = req.Model
	car.Year = req.Year
	car.PricePerDay = req.PricePerDay
	car.City = req.City
	if req.Seats > 0 {
		car.Seats = req.Seats
	}
	if req.Transmission != "" {
		car.Transmission = req.Transmission
	}
	car.Features = models.MarshalStringList(req.Features)
	car.Images = models.MarshalStringList(req.Images)
	// Edits go back through moderation.
	car.Status = models.CarStatusPending

	if err := database.DB.Save(&car).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update car listing"})
	}

	return c.JSON(carView(car))
}

func GetMyCars(c *fiber.Ctx) error {
	ownerID := currentUserID(c)

	var cars []models.Car
	database.DB.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&cars)

	return c.JSON(carViews(cars))
}
