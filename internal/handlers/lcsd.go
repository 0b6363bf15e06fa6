package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davidkych/cursus-backend/internal/jsonstore"
	"github.com/davidkych/cursus-backend/internal/lcsd"
)

// Sweeps fetch dozens of pages with a polite delay in between, so they get
// a much longer deadline than a plain DB call.
const sweepTimeout = 10 * time.Minute

type ProbeRequest struct {
	StartDID int `json:"startDid" form:"startDid"`
	EndDID   int `json:"endDid" form:"endDid"`
}

func todayKey(secondaryTag string) jsonstore.Key {
	now := jsonstore.NowHKT()
	year, month, day := now.Year(), int(now.Month()), now.Day()
	return jsonstore.Key{
		Tag:          "lcsd",
		SecondaryTag: secondaryTag,
		Year:         &year,
		Month:        &month,
		Day:          &day,
	}
}

// remarshal converts a decoded BSON value into a typed struct.
func remarshal(data, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// ProbeLCSD handles POST/GET /api/lcsd/probe: sweep a DID range for real
// facility pages and persist the result as today's probe document.
func ProbeLCSD(client *lcsd.Client, store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProbeRequest
		if c.Request.Method == http.MethodPost {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondWithError(c, http.StatusBadRequest, "LCSD", "invalid body")
				return
			}
		} else {
			if err := c.ShouldBindQuery(&req); err != nil {
				respondWithError(c, http.StatusBadRequest, "LCSD", "invalid query")
				return
			}
		}
		if req.StartDID < 1 || req.EndDID < req.StartDID {
			respondWithError(c, http.StatusBadRequest, "LCSD", "startDid and endDid must satisfy 1 <= startDid <= endDid")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), sweepTimeout)
		defer cancel()

		result, err := client.Probe(ctx, req.StartDID, req.EndDID)
		if err != nil {
			log.Println("[LCSD] [ERROR] probe sweep failed:", err)
			respondWithError(c, http.StatusBadGateway, "LCSD", "probe sweep failed")
			return
		}

		dbCtx, dbCancel := dbContext()
		defer dbCancel()

		id, err := store.Upsert(dbCtx, todayKey("probe"), result)
		if err != nil {
			log.Println("[LCSD] [ERROR] probe store failed:", err)
			respondWithError(c, http.StatusInternalServerError, "LCSD", "db error")
			return
		}

		log.Printf("[LCSD] [INFO] probe found %d valid DID(s) in %d checked", len(result.ValidDIDs), result.Checked)
		c.JSON(http.StatusOK, gin.H{"status": "success", "id": id, "result": result})
	}
}

// BuildMaster handles POST/GET /api/lcsd/master: parse every valid DID from
// the newest probe into facility records and persist the master list.
func BuildMaster(client *lcsd.Client, store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbCtx, dbCancel := dbContext()
		doc, err := store.Latest(dbCtx, "lcsd", "probe")
		dbCancel()
		if err == jsonstore.ErrNotFound {
			respondWithError(c, http.StatusNotFound, "LCSD", "no probe data; run /api/lcsd/probe first")
			return
		}
		if err != nil {
			log.Println("[LCSD] [ERROR] probe lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "LCSD", "db error")
			return
		}

		var probe lcsd.ProbeResult
		if err := remarshal(doc.Data, &probe); err != nil {
			log.Println("[LCSD] [ERROR] probe document malformed:", err)
			respondWithError(c, http.StatusInternalServerError, "LCSD", "probe document malformed")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), sweepTimeout)
		defer cancel()

		facilities := []lcsd.Facility{}
		for i, didStr := range probe.ValidDIDs {
			did, err := strconv.Atoi(didStr)
			if err != nil {
				continue
			}

			page, ok, err := client.FetchPage(ctx, did)
			if err != nil || !ok {
				log.Println("[LCSD] [ERROR] master fetch skipped DID", did, ":", err)
				continue
			}

			parsed, err := lcsd.ParseFacilityPage(page, didStr)
			if err != nil {
				log.Println("[LCSD] [ERROR] master parse skipped DID", did, ":", err)
				continue
			}
			facilities = append(facilities, parsed...)

			if client.Delay > 0 && i < len(probe.ValidDIDs)-1 {
				select {
				case <-time.After(client.Delay):
				case <-ctx.Done():
					respondWithError(c, http.StatusBadGateway, "LCSD", "master sweep interrupted")
					return
				}
			}
		}

		payload := gin.H{
			"facilities": facilities,
			"total":      len(facilities),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}

		dbCtx2, dbCancel2 := dbContext()
		defer dbCancel2()

		id, err := store.Upsert(dbCtx2, todayKey("master"), payload)
		if err != nil {
			log.Println("[LCSD] [ERROR] master store failed:", err)
			respondWithError(c, http.StatusInternalServerError, "LCSD", "db error")
			return
		}

		log.Printf("[LCSD] [INFO] master list built with %d facility record(s)", len(facilities))
		c.JSON(http.StatusOK, gin.H{"status": "success", "id": id, "total": len(facilities)})
	}
}

// BuildLCSDTimetable handles GET /api/lcsd/timetable: expand the newest
// master list into a per-day availability skeleton for one month.
func BuildLCSDTimetable(store *jsonstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := jsonstore.NowHKT()
		year := now.Year()
		month := int(now.Month())
		if v := c.Query("year"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 1900 {
				respondWithError(c, http.StatusBadRequest, "LCSD", "year must be a year >= 1900")
				return
			}
			year = parsed
		}
		if v := c.Query("month"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 1 || parsed > 12 {
				respondWithError(c, http.StatusBadRequest, "LCSD", "month must be 1-12")
				return
			}
			month = parsed
		}

		ctx, cancel := dbContext()
		defer cancel()

		doc, err := store.Latest(ctx, "lcsd", "master")
		if err == jsonstore.ErrNotFound {
			respondWithError(c, http.StatusNotFound, "LCSD", "no master data; run /api/lcsd/master first")
			return
		}
		if err != nil {
			log.Println("[LCSD] [ERROR] master lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "LCSD", "db error")
			return
		}

		var master struct {
			Facilities []lcsd.Facility `json:"facilities"`
		}
		if err := remarshal(doc.Data, &master); err != nil {
			log.Println("[LCSD] [ERROR] master document malformed:", err)
			respondWithError(c, http.StatusInternalServerError, "LCSD", "master document malformed")
			return
		}

		timetable := lcsd.BuildTimetable(master.Facilities, year, time.Month(month))

		payload := gin.H{
			"year":      year,
			"month":     month,
			"entries":   timetable,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		id, err := store.Upsert(ctx, todayKey("timetable"), payload)
		if err != nil {
			log.Println("[LCSD] [ERROR] timetable store failed:", err)
			respondWithError(c, http.StatusInternalServerError, "LCSD", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "id": id, "year": year, "month": month, "entries": timetable})
	}
}
