package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/xadn01/finnepal/internal/model"
)

func TestCreateItemHonorsExplicitInactive(t *testing.T) {
	db := openTestDB(t)

	c, rec := request(t, http.MethodPost, "/",
		`{"code": "SRV-001", "name": "Retainer", "type": "service", "is_active": false}`)
	if err := CreateItem(c); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var item model.Item
	if err := db.Where("code = ?", "SRV-001").First(&item).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if item.IsActive {
		t.Error("item created with is_active=false is active")
	}
}

func TestCreateItemDefaultsToActive(t *testing.T) {
	db := openTestDB(t)

	c, rec := request(t, http.MethodPost, "/",
		`{"code": "PRD-001", "name": "Widget"}`)
	if err := CreateItem(c); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var item model.Item
	if err := db.Where("code = ?", "PRD-001").First(&item).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if !item.IsActive {
		t.Error("item created without is_active is inactive")
	}
}

func TestUpdateItemKeepsActiveWhenFieldOmitted(t *testing.T) {
	db := openTestDB(t)

	item := model.Item{
		TenantID:  1,
		Code:      "PRD-002",
		Name:      "Gadget",
		Type:      model.ItemProduct,
		IsActive:  true,
		CreatedBy: 1,
		UpdatedBy: 1,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	c, rec := request(t, http.MethodPut, "/",
		`{"code": "PRD-002", "name": "Gadget v2"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(item.ID))
	if err := UpdateItem(c); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var reloaded model.Item
	if err := db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if !reloaded.IsActive {
		t.Error("update without is_active deactivated the item")
	}
	if reloaded.Name != "Gadget v2" {
		t.Errorf("name = %q, want %q", reloaded.Name, "Gadget v2")
	}

	// An explicit false still deactivates
	c, rec = request(t, http.MethodPut, "/",
		`{"code": "PRD-002", "name": "Gadget v2", "is_active": false}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(item.ID))
	if err := UpdateItem(c); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if err := db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if reloaded.IsActive {
		t.Error("update with is_active=false left the item active")
	}
}
