// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

// messageCatalog is the complete CPDLC message catalog. Every entry maps
// an ICAO CPDLC message identifier to its template, argument types,
// response attribute, and system support flags.
var messageCatalog = []CatalogEntry{
	// Uplink: responses, acknowledgement, connection management
	{ID: "UM0", Direction: Uplink, Template: "UNABLE", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM1", Direction: Uplink, Template: "STANDBY", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM2", Direction: Uplink, Template: "REQUEST DEFERRED", ResponseAttr: RespN, FANS: true},
	{ID: "UM3", Direction: Uplink, Template: "ROGER", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM4", Direction: Uplink, Template: "AFFIRM", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM5", Direction: Uplink, Template: "NEGATIVE", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM159", Direction: Uplink, Template: "ERROR [error information]", Args: []ArgType{ArgErrorInfo}, ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM160", Direction: Uplink, Template: "NEXT DATA AUTHORITY [facility designation]", Args: []ArgType{ArgFacilityDesignation}, ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM161", Direction: Uplink, Template: "END SERVICE", ResponseAttr: RespN, FANS: true},
	{ID: "UM162", Direction: Uplink, Template: "MESSAGE NOT SUPPORTED BY THIS ATS UNIT", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM163", Direction: Uplink, Template: "[facility designation]", Args: []ArgType{ArgFacilityDesignation}, ResponseAttr: RespN, FANS: true},
	{ID: "UM211", Direction: Uplink, Template: "REQUEST FORWARDED", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "UM227", Direction: Uplink, Template: "LOGICAL ACKNOWLEDGEMENT", ResponseAttr: RespN, ATNB1: true},

	// Uplink: vertical clearances
	{ID: "UM19", Direction: Uplink, Template: "MAINTAIN [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM20", Direction: Uplink, Template: "CLIMB TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM21", Direction: Uplink, Template: "AT [time] CLIMB TO [level]", Args: []ArgType{ArgTime, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM22", Direction: Uplink, Template: "AT [position] CLIMB TO [level]", Args: []ArgType{ArgPosition, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM23", Direction: Uplink, Template: "DESCEND TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM24", Direction: Uplink, Template: "AT [time] DESCEND TO [level]", Args: []ArgType{ArgTime, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM25", Direction: Uplink, Template: "AT [position] DESCEND TO [level]", Args: []ArgType{ArgPosition, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM26", Direction: Uplink, Template: "CLIMB TO REACH [level] BY [time]", Args: []ArgType{ArgLevel, ArgTime}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM27", Direction: Uplink, Template: "CLIMB TO REACH [level] BY [position]", Args: []ArgType{ArgLevel, ArgPosition}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM28", Direction: Uplink, Template: "DESCEND TO REACH [level] BY [time]", Args: []ArgType{ArgLevel, ArgTime}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM29", Direction: Uplink, Template: "DESCEND TO REACH [level] BY [position]", Args: []ArgType{ArgLevel, ArgPosition}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM30", Direction: Uplink, Template: "MAINTAIN BLOCK [level] TO [level]", Args: []ArgType{ArgLevel, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM31", Direction: Uplink, Template: "CLIMB TO AND MAINTAIN BLOCK [level] TO [level]", Args: []ArgType{ArgLevel, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM32", Direction: Uplink, Template: "DESCEND TO AND MAINTAIN BLOCK [level] TO [level]", Args: []ArgType{ArgLevel, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM34", Direction: Uplink, Template: "CRUISE CLIMB TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM36", Direction: Uplink, Template: "EXPEDITE CLIMB TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM37", Direction: Uplink, Template: "EXPEDITE DESCENT TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM38", Direction: Uplink, Template: "IMMEDIATELY CLIMB TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM39", Direction: Uplink, Template: "IMMEDIATELY DESCEND TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespWU, FANS: true},

	// Uplink: crossing constraints and route
	{ID: "UM46", Direction: Uplink, Template: "CROSS [position] AT [level]", Args: []ArgType{ArgPosition, ArgLevel}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM47", Direction: Uplink, Template: "CROSS [position] AT OR ABOVE [level]", Args: []ArgType{ArgPosition, ArgLevel}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM48", Direction: Uplink, Template: "CROSS [position] AT OR BELOW [level]", Args: []ArgType{ArgPosition, ArgLevel}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM49", Direction: Uplink, Template: "CROSS [position] AT AND MAINTAIN [level]", Args: []ArgType{ArgPosition, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM50", Direction: Uplink, Template: "CROSS [position] BETWEEN [level] AND [level]", Args: []ArgType{ArgPosition, ArgLevel, ArgLevel}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM51", Direction: Uplink, Template: "CROSS [position] AT [time]", Args: []ArgType{ArgPosition, ArgTime}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM52", Direction: Uplink, Template: "CROSS [position] AT OR BEFORE [time]", Args: []ArgType{ArgPosition, ArgTime}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM53", Direction: Uplink, Template: "CROSS [position] AT OR AFTER [time]", Args: []ArgType{ArgPosition, ArgTime}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM54", Direction: Uplink, Template: "CROSS [position] BETWEEN [time] AND [time]", Args: []ArgType{ArgPosition, ArgTime, ArgTime}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM55", Direction: Uplink, Template: "CROSS [position] AT [speed]", Args: []ArgType{ArgPosition, ArgSpeed}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM61", Direction: Uplink, Template: "CROSS [position] AT AND MAINTAIN [level] AT [speed]", Args: []ArgType{ArgPosition, ArgLevel, ArgSpeed}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM74", Direction: Uplink, Template: "PROCEED DIRECT TO [position]", Args: []ArgType{ArgPosition}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM79", Direction: Uplink, Template: "CLEARED TO [position] VIA [route clearance]", Args: []ArgType{ArgPosition, ArgRouteClearance}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM80", Direction: Uplink, Template: "CLEARED [route clearance]", Args: []ArgType{ArgRouteClearance}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM81", Direction: Uplink, Template: "CLEARED [procedure name]", Args: []ArgType{ArgProcedureName}, ResponseAttr: RespWU, FANS: true},
	{ID: "UM82", Direction: Uplink, Template: "CLEARED TO DEVIATE UP TO [distance] [direction] OF ROUTE", Args: []ArgType{ArgDistance, ArgDirection}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM92", Direction: Uplink, Template: "HOLD AT [position] AS PUBLISHED MAINTAIN [level]", Args: []ArgType{ArgPosition, ArgLevel}, ResponseAttr: RespWU, FANS: true, ATNB1: true},

	// Uplink: heading, speed, offset
	{ID: "UM64", Direction: Uplink, Template: "OFFSET [distance] [direction] OF ROUTE", Args: []ArgType{ArgDistance, ArgDirection}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM67", Direction: Uplink, Template: "PROCEED BACK ON ROUTE", ResponseAttr: RespWU, FANS: true},
	{ID: "UM94", Direction: Uplink, Template: "TURN [direction] HEADING [degrees]", Args: []ArgType{ArgDirection, ArgDegrees}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM96", Direction: Uplink, Template: "CONTINUE PRESENT HEADING", ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM190", Direction: Uplink, Template: "FLY HEADING [degrees]", Args: []ArgType{ArgDegrees}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM215", Direction: Uplink, Template: "TURN [direction] [degrees] DEGREES", Args: []ArgType{ArgDirection, ArgDegrees}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM106", Direction: Uplink, Template: "MAINTAIN [speed]", Args: []ArgType{ArgSpeed}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM107", Direction: Uplink, Template: "MAINTAIN PRESENT SPEED", ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM108", Direction: Uplink, Template: "MAINTAIN [speed] OR GREATER", Args: []ArgType{ArgSpeed}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM109", Direction: Uplink, Template: "MAINTAIN [speed] OR LESS", Args: []ArgType{ArgSpeed}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM116", Direction: Uplink, Template: "RESUME NORMAL SPEED", ResponseAttr: RespWU, FANS: true, ATNB1: true},

	// Uplink: contact and surveillance
	{ID: "UM117", Direction: Uplink, Template: "CONTACT [unit name] [frequency]", Args: []ArgType{ArgUnitName, ArgFrequency}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM120", Direction: Uplink, Template: "MONITOR [unit name] [frequency]", Args: []ArgType{ArgUnitName, ArgFrequency}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM123", Direction: Uplink, Template: "SQUAWK [code]", Args: []ArgType{ArgCode}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM179", Direction: Uplink, Template: "SQUAWK IDENT", ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM128", Direction: Uplink, Template: "REPORT LEAVING [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespR, FANS: true},
	{ID: "UM129", Direction: Uplink, Template: "REPORT MAINTAINING [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespR, FANS: true},
	{ID: "UM130", Direction: Uplink, Template: "REPORT PASSING [position]", Args: []ArgType{ArgPosition}, ResponseAttr: RespR, FANS: true},
	{ID: "UM132", Direction: Uplink, Template: "REPORT POSITION", ResponseAttr: RespY, FANS: true},
	{ID: "UM133", Direction: Uplink, Template: "REPORT PRESENT LEVEL", ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "UM135", Direction: Uplink, Template: "CONFIRM ASSIGNED LEVEL", ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "UM148", Direction: Uplink, Template: "WHEN CAN YOU ACCEPT [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "UM149", Direction: Uplink, Template: "CAN YOU ACCEPT [level] AT [position]", Args: []ArgType{ArgLevel, ArgPosition}, ResponseAttr: RespAN, FANS: true},

	// Uplink: information
	{ID: "UM153", Direction: Uplink, Template: "ALTIMETER [altimeter]", Args: []ArgType{ArgAltimeter}, ResponseAttr: RespR, FANS: true},
	{ID: "UM158", Direction: Uplink, Template: "ATIS [atis code]", Args: []ArgType{ArgAtisCode}, ResponseAttr: RespR, FANS: true},
	{ID: "UM168", Direction: Uplink, Template: "DISREGARD", ResponseAttr: RespR, FANS: true},
	{ID: "UM169", Direction: Uplink, Template: "[free text]", Args: []ArgType{ArgFreeText}, ResponseAttr: RespR, FANS: true, ATNB1: true},
	{ID: "UM183", Direction: Uplink, Template: "[free text]", Args: []ArgType{ArgFreeText}, ResponseAttr: RespWU, FANS: true, ATNB1: true},
	{ID: "UM222", Direction: Uplink, Template: "NO SPEED RESTRICTION", ResponseAttr: RespR, FANS: true, ATNB1: true},
	{ID: "UM176", Direction: Uplink, Template: "MAINTAIN OWN SEPARATION AND VMC", ResponseAttr: RespWU, FANS: true},

	// Downlink: responses
	{ID: "DM0", Direction: Downlink, Template: "WILCO", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM1", Direction: Downlink, Template: "UNABLE", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM2", Direction: Downlink, Template: "STANDBY", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM3", Direction: Downlink, Template: "ROGER", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM4", Direction: Downlink, Template: "AFFIRM", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM5", Direction: Downlink, Template: "NEGATIVE", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM62", Direction: Downlink, Template: "ERROR [error information]", Args: []ArgType{ArgErrorInfo}, ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM63", Direction: Downlink, Template: "NOT CURRENT DATA AUTHORITY", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM107", Direction: Downlink, Template: "NOT AUTHORIZED NEXT DATA AUTHORITY", ResponseAttr: RespN, ATNB1: true},
	{ID: "DM100", Direction: Downlink, Template: "LOGICAL ACKNOWLEDGEMENT", ResponseAttr: RespN, ATNB1: true},

	// Downlink: pilot requests
	{ID: "DM6", Direction: Downlink, Template: "REQUEST [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM7", Direction: Downlink, Template: "REQUEST BLOCK [level] TO [level]", Args: []ArgType{ArgLevel, ArgLevel}, ResponseAttr: RespY, FANS: true},
	{ID: "DM9", Direction: Downlink, Template: "REQUEST CLIMB TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM10", Direction: Downlink, Template: "REQUEST DESCENT TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM15", Direction: Downlink, Template: "REQUEST OFFSET [distance] [direction] OF ROUTE", Args: []ArgType{ArgDistance, ArgDirection}, ResponseAttr: RespY, FANS: true},
	{ID: "DM18", Direction: Downlink, Template: "REQUEST [speed]", Args: []ArgType{ArgSpeed}, ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM20", Direction: Downlink, Template: "REQUEST VOICE CONTACT", ResponseAttr: RespY, FANS: true},
	{ID: "DM22", Direction: Downlink, Template: "REQUEST DIRECT TO [position]", Args: []ArgType{ArgPosition}, ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM25", Direction: Downlink, Template: "REQUEST CLEARANCE", ResponseAttr: RespY, FANS: true},
	{ID: "DM27", Direction: Downlink, Template: "REQUEST WEATHER DEVIATION UP TO [distance] [direction] OF ROUTE", Args: []ArgType{ArgDistance, ArgDirection}, ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM70", Direction: Downlink, Template: "REQUEST HEADING [degrees]", Args: []ArgType{ArgDegrees}, ResponseAttr: RespY, FANS: true},

	// Downlink: reports
	{ID: "DM28", Direction: Downlink, Template: "LEAVING [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespN, FANS: true},
	{ID: "DM29", Direction: Downlink, Template: "CLIMBING TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespN, FANS: true},
	{ID: "DM30", Direction: Downlink, Template: "DESCENDING TO [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespN, FANS: true},
	{ID: "DM31", Direction: Downlink, Template: "PASSING [position]", Args: []ArgType{ArgPosition}, ResponseAttr: RespN, FANS: true},
	{ID: "DM32", Direction: Downlink, Template: "PRESENT LEVEL [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM33", Direction: Downlink, Template: "PRESENT POSITION [position]", Args: []ArgType{ArgPosition}, ResponseAttr: RespN, FANS: true},
	{ID: "DM34", Direction: Downlink, Template: "PRESENT SPEED [speed]", Args: []ArgType{ArgSpeed}, ResponseAttr: RespN, FANS: true},
	{ID: "DM37", Direction: Downlink, Template: "MAINTAINING [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespN, FANS: true},
	{ID: "DM38", Direction: Downlink, Template: "ASSIGNED LEVEL [level]", Args: []ArgType{ArgLevel}, ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM41", Direction: Downlink, Template: "BACK ON ROUTE", ResponseAttr: RespN, FANS: true},
	{ID: "DM48", Direction: Downlink, Template: "POSITION REPORT [position report]", Args: []ArgType{ArgPositionReport}, ResponseAttr: RespN, FANS: true},
	{ID: "DM65", Direction: Downlink, Template: "DUE TO WEATHER", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM66", Direction: Downlink, Template: "DUE TO AIRCRAFT PERFORMANCE", ResponseAttr: RespN, FANS: true, ATNB1: true},
	{ID: "DM89", Direction: Downlink, Template: "MONITORING [unit name] [frequency]", Args: []ArgType{ArgUnitName, ArgFrequency}, ResponseAttr: RespN, FANS: true, ATNB1: true},

	// Downlink: emergencies and free text
	{ID: "DM55", Direction: Downlink, Template: "PAN PAN PAN", ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM56", Direction: Downlink, Template: "MAYDAY MAYDAY MAYDAY", ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM58", Direction: Downlink, Template: "CANCEL EMERGENCY", ResponseAttr: RespY, FANS: true, ATNB1: true},
	{ID: "DM67", Direction: Downlink, Template: "[free text]", Args: []ArgType{ArgFreeText}, ResponseAttr: RespR, FANS: true, ATNB1: true},
}
